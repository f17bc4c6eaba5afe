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
 *  source.go - Fitxers en memòria.
 *
 */

package testutil

import (
  "bytes"
  "fmt"
  "io/fs"
  "strings"
  "sync"

  "github.com/adriagipas/xcontent/utils"
)


/**************/
/* MEM SOURCE */
/**************/

// Implementa utils.FileWriterSource. Els camins no distingeixen
// majúscules.
type MemSource struct {
  mu     sync.Mutex
  files  map[string][]byte
  opened int
}


func NewMemSource() *MemSource {
  return &MemSource{files: make ( map[string][]byte )}
}


func (self *MemSource) Add( path string, data []byte ) *MemSource {
  self.mu.Lock ()
  defer self.mu.Unlock ()
  self.files[strings.ToLower ( utils.JoinPath ( path ) )]= data
  return self
} // end Add


// Afegix la capçalera i els fitxers de dades d'un SVOD.
func (self *MemSource) AddSVOD( path string, svod *SVOD ) *MemSource {
  self.Add ( path, svod.Header )
  for i,d:= range svod.DataFiles {
    self.Add ( fmt.Sprintf ( "%s.data/Data%04d", path, i ), d )
  }
  return self
} // end AddSVOD


// Fitxers oberts i encara no tancats.
func (self *MemSource) Opened() int {
  self.mu.Lock ()
  defer self.mu.Unlock ()
  return self.opened
} // end Opened


type _MemFile struct {
  *bytes.Reader
  src    *MemSource
  closed bool
}


func (self *_MemFile) Close() error {
  if !self.closed {
    self.closed= true
    self.src.mu.Lock ()
    self.src.opened--
    self.src.mu.Unlock ()
  }
  return nil
} // end Close


func (self *MemSource) OpenFile( path string ) (utils.FileReader,error) {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  data,ok:= self.files[strings.ToLower ( utils.JoinPath ( path ) )]
  if !ok {
    return nil,&fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
  }
  self.opened++

  return &_MemFile{Reader: bytes.NewReader ( data ), src: self},nil

} // end OpenFile


func (self *MemSource) WriteFileAt( path string, buf []byte, off int64 ) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  data,ok:= self.files[strings.ToLower ( utils.JoinPath ( path ) )]
  if !ok {
    return &fs.PathError{Op: "write", Path: path, Err: fs.ErrNotExist}
  }

  return utils.WriteBytes ( memWriter ( data ), 0, int64(len(data)), buf, off )

} // end WriteFileAt


// Escriu directament sobre el slice.
type memWriter []byte

func (self memWriter) WriteAt( buf []byte, off int64 ) (int,error) {
  return copy ( self[off:], buf ),nil
}


// Contingut actual d'un fitxer.
func (self *MemSource) Data( path string ) []byte {
  self.mu.Lock ()
  defer self.mu.Unlock ()
  return self.files[strings.ToLower ( utils.JoinPath ( path ) )]
} // end Data
