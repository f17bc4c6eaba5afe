/*
 * Copyright 2026 Adrià Giménez Pastor.
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
 *  file.go - Lectura de fitxers seguint la cadena de clusters.
 *
 */

package fatx

import (
  "errors"
  "fmt"
  "io"

  "github.com/adriagipas/xcontent/utils"
)


/********/
/* FILE */
/********/

// No carrega el fitxer en memòria, sols la llista de clusters.
type File struct {

  vol      *Volume
  entry    DirEntry
  clusters []uint32
  pos      int64

}


func (self *Volume) Open( path string ) (*File,error) {

  self.mu.RLock ()
  defer self.mu.RUnlock ()
  e,err := self.lookup ( path )
  if err != nil { return nil,err }
  if e.IsDir () {
    return nil,fmt.Errorf ( "%w: '%s'", ErrIsDir, path )
  }
  clusters,err := self.fat.chain ( e.FirstCluster )
  if err != nil { return nil,err }
  if int64(len(clusters))*self.geo.cluster_size < int64(e.Size) {
    return nil,fmt.Errorf ( "cluster chain of '%s' is shorter than its"+
      " size (%d clusters, %d bytes)", path, len(clusters), e.Size )
  }

  return &File{
    vol: self,
    entry: e,
    clusters: clusters,
  },nil

} // end Open


// Permet emprar el volum com a utils.FileSource.
func (self *Volume) OpenFile( path string ) (utils.FileReader,error) {
  f,err := self.Open ( path )
  if err != nil { return nil,err }
  return f,nil
} // end OpenFile


func (self *Volume) ReadFile( path string ) ([]byte,error) {

  f,err := self.Open ( path )
  if err != nil { return nil,err }
  defer f.Close ()
  ret := make ( []byte, f.Size () )
  if _,err := io.ReadFull ( f, ret ); err != nil { return nil,err }

  return ret,nil

} // end ReadFile


func (self *File) Size() int64 { return int64(self.entry.Size) }

func (self *File) Entry() DirEntry { return self.entry }


func (self *File) ReadAt( buf []byte, off int64 ) (int,error) {

  if off < 0 { return 0,errors.New ( "fatx.File.ReadAt: negative offset" ) }
  size := self.Size ()
  if off >= size { return 0,io.EOF }
  var eof error
  if remain := size-off; int64(len(buf)) > remain {
    buf= buf[:remain]
    eof= io.EOF
  }

  self.vol.mu.RLock ()
  defer self.vol.mu.RUnlock ()
  cs := self.vol.geo.cluster_size
  ret := 0
  for len(buf) > 0 {
    ind := off/cs
    in := off%cs
    n := cs-in
    if n > int64(len(buf)) { n= int64(len(buf)) }
    pos := self.vol.clusterOffset ( self.clusters[ind] ) + in
    if err := utils.ReadBytes ( self.vol.dev, 0, self.vol.length,
      buf[:n], pos ); err != nil {
      return ret,err
    }
    buf= buf[n:]
    off+= n
    ret+= int(n)
  }

  return ret,eof

} // end ReadAt


func (self *File) Read( buf []byte ) (int,error) {

  if self.pos >= self.Size () { return 0,io.EOF }
  n,err := self.ReadAt ( buf, self.pos )
  self.pos+= int64(n)
  if err == io.EOF && n > 0 { err= nil }

  return n,err

} // end Read


func (self *File) Seek( offset int64, whence int ) (int64,error) {

  var pos int64
  switch whence {
  case io.SeekStart:
    pos= offset
  case io.SeekCurrent:
    pos= self.pos + offset
  case io.SeekEnd:
    pos= self.Size () + offset
  default:
    return 0,fmt.Errorf ( "fatx.File.Seek: invalid whence %d", whence )
  }
  if pos < 0 {
    return 0,errors.New ( "fatx.File.Seek: negative position" )
  }
  self.pos= pos

  return pos,nil

} // end Seek


func (self *File) Close() error { return nil }
