/*
 * Copyright 2025-2026 Adrià Giménez Pastor.
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
 *  file_interfaces.go - Interfícies per manipular fitxers.
 *
 */

package utils

import (
  "os"
  "path/filepath"
  "strings"
)


type FileReader interface {

  // Llig en el buffer. Torna el nombre de bytes llegits. Quan aplega
  // al final torna 0 i io.EOF.
  Read(buf []byte) (int,error)

  // Llig a partir d'una posició sense modificar la posició actual.
  ReadAt(buf []byte, off int64) (int,error)

  // Grandària en bytes.
  Size() int64

  // Tanca el fitxer.
  Close() error

}


// Qualsevol cosa que sap obrir fitxers a partir d'un camí separat
// per '/'. Un volum FATX o una carpeta local.
type FileSource interface {
  OpenFile(path string) (FileReader,error)
}


// Font que a més permet sobreescriure bytes d'un fitxer existent
// sense canviar-ne la grandària.
type FileWriterSource interface {
  FileSource
  WriteFileAt(path string, buf []byte, off int64) error
}


/****************/
/* LOCAL SOURCE */
/****************/

type LocalSource struct {
  Root string
}


type _LocalFile struct {
  *os.File
  size int64
}


func (self *_LocalFile) Size() int64 { return self.size }


func (self LocalSource) fullPath( path string ) string {
  return filepath.Join ( self.Root,
    filepath.FromSlash ( strings.TrimPrefix ( path, "/" ) ) )
}


func (self LocalSource) OpenFile( path string ) (FileReader,error) {

  f,err := os.Open ( self.fullPath ( path ) )
  if err != nil { return nil,err }
  info,err := f.Stat ()
  if err != nil {
    f.Close ()
    return nil,err
  }

  return &_LocalFile{File: f, size: info.Size ()},nil

} // end LocalSource.OpenFile


func (self LocalSource) WriteFileAt( path string, buf []byte, off int64 ) error {

  f,err := os.OpenFile ( self.fullPath ( path ), os.O_WRONLY, 0 )
  if err != nil { return err }
  info,err := f.Stat ()
  if err != nil {
    f.Close ()
    return err
  }
  if err := WriteBytes ( f, 0, info.Size (), buf, off ); err != nil {
    f.Close ()
    return err
  }

  return f.Close ()

} // end LocalSource.WriteFileAt
