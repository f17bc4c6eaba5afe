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
 *  subfile.go - Per a llegir/escriure regions que formen part d'un
 *               altre fitxer (particions dins d'un disc o d'una
 *               imatge).
 *
 */

package utils;

import (
  "errors"
  "io"
)


/**********/
/* REGION */
/**********/

// Totes les posicions de Region són relatives al principi de la
// regió.
type Region struct {

  r      io.ReaderAt
  w      io.WriterAt // nil si és sols lectura
  offset int64
  length int64

}


// Crea una regió. Si f implementa io.WriterAt la regió es pot
// escriure.
func NewRegion( f io.ReaderAt, offset int64, length int64 ) *Region {

  ret := Region{
    r: f,
    offset: offset,
    length: length,
  }
  if w,ok := f.(io.WriterAt); ok {
    ret.w= w
  }

  return &ret

} // end NewRegion


// Igual que NewRegion però mai es podrà escriure.
func NewReadOnlyRegion( f io.ReaderAt, offset int64, length int64 ) *Region {
  return &Region{
    r: f,
    offset: offset,
    length: length,
  }
} // end NewReadOnlyRegion


func (self *Region) Size() int64 { return self.length }


func (self *Region) Offset() int64 { return self.offset }


func (self *Region) Writable() bool { return self.w != nil }


func (self *Region) ReadAt( buf []byte, off int64 ) (int,error) {

  if off < 0 {
    return 0,errors.New ( "Region.ReadAt: negative offset" )
  }
  if off >= self.length { return 0,io.EOF }

  // Retalla al final de la regió
  var eof error
  if remain := self.length-off; int64(len(buf)) > remain {
    buf= buf[:remain]
    eof= io.EOF
  }
  if err := ReadBytes ( self.r, self.offset, self.length,
    buf, self.offset+off ); err != nil {
    return 0,err
  }

  return len(buf),eof

} // end ReadAt


func (self *Region) WriteAt( buf []byte, off int64 ) (int,error) {

  if self.w == nil {
    return 0,errors.New ( "Region.WriteAt: region is read-only" )
  }
  if len(buf) == 0 { return 0,nil }
  if err := WriteBytes ( self.w, self.offset, self.length,
    buf, self.offset+off ); err != nil {
    return 0,err
  }

  return len(buf),nil

} // end WriteAt
