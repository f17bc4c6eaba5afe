/*
 * Copyright 2022-2026 Adrià Giménez Pastor.
 *
 * This file is part of adriagipas/xcontent.
 *
 * adriagipas/xcontent is free software: you can redistribute it and/or
 * modify it under the terms of the GNU General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * adriagipas/xcontent is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with adriagipas/xcontent.  If not, see <https://www.gnu.org/licenses/>.
 */
/*
 *  common.go - Funcions bàsiques.
 *
 */

package utils

import (
  "errors"
  "fmt"
  "io"
  "os"
  "strconv"
)


// Accés fora del segment permés d'un fitxer o regió.
var ErrOutOfBounds = errors.New ( "out of bounds" )


/************/
/* FUNCIONS */
/************/

var _UNITS = []struct {
  size   uint64
  suffix string
}{
  {1024*1024*1024, "G"},
  {1024*1024, "M"},
  {1024, "K"},
}


// Torna una representació curta de la grandària. No depén del locale.
func NumBytesToStr(num_bytes uint64) string {

  for _,u := range _UNITS {
    if num_bytes > u.size {
      val := float64(num_bytes)/float64(u.size)
      return strconv.FormatFloat ( val, 'f', 1, 32 ) + u.suffix
    }
  }

  return strconv.FormatUint ( num_bytes, 10 )

} // end NumBytesToStr


// Comprova que [offset,offset+length) cau dins de
// [f_begin,f_begin+f_length).
func checkSegment(

  op       string,
  f_begin  int64,
  f_length int64,
  offset   int64,
  length   int64,

) error {

  end := f_begin + f_length
  if offset < f_begin || offset >= end || offset+length > end {
    return fmt.Errorf ( "%s segment (offset:%d, length:%d) of "+
      "(offset:%d, length:%d): %w", op, offset, length, f_begin, f_length,
      ErrOutOfBounds )
  }

  return nil

} // end checkSegment


// Llig bytes d'un fitxer fent comprovacions. Les posicions són
// absolutes dins de f, i el segment [f_begin,f_begin+f_length) és
// l'únic accessible.
func ReadBytes(

  f        io.ReaderAt,
  f_begin  int64,
  f_length int64,
  buf      []byte,
  offset   int64,

) error {

  err := checkSegment ( "reading", f_begin, f_length, offset,
    int64(len(buf)) )
  if err != nil { return err }

  nbytes,err := f.ReadAt ( buf, offset )
  if nbytes == len(buf) { return nil }
  if err == nil || err == io.EOF { err= io.ErrUnexpectedEOF }

  return err

} // end ReadBytes


// Escriu bytes en un fitxer fent comprovacions.
func WriteBytes(

  f        io.WriterAt,
  f_begin  int64,
  f_length int64,
  buf      []byte,
  offset   int64,

) error {

  err := checkSegment ( "writing", f_begin, f_length, offset,
    int64(len(buf)) )
  if err != nil { return err }

  nbytes,err := f.WriteAt ( buf, offset )
  if err != nil { return err }
  if nbytes != len(buf) { return io.ErrShortWrite }

  return nil

} // end WriteBytes


// Avís no fatal per stderr.
func Warning(format string, args ...any) {
  fmt.Fprintf ( os.Stderr, "[WW] "+format+"\n", args... )
}
