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
 *  stfs.go - Secure Transacted File System
 */

package x360

import (
  "fmt"
  "io"
  "strings"
  "sync"
  "time"

  "github.com/adriagipas/xcontent/utils"
)


/****************/
/* OPEN OPTIONS */
/****************/

type OpenOptions struct {

  // Comprova el hash de la capçalera i el dels blocs que es lligen.
  Verify bool

  Logger utils.Logger

}


/**************/
/* FILE ENTRY */
/**************/

const (
  _STFS_ENTRY_SIZE        = 0x40
  _STFS_ENTRIES_PER_BLOCK = _STFS_BLOCK_SIZE/_STFS_ENTRY_SIZE

  STFS_FLAG_CONSECUTIVE = 0x40
  STFS_FLAG_DIRECTORY   = 0x80
)

type FileEntry struct {

  Index            int
  Name             string
  Flags            uint8
  BlocksForFile    int32
  StartingBlock    int32
  PathIndicator    int16 // -1 vol dir l'arrel
  Size             uint32
  CreatedTimeStamp uint32
  AccessTimeStamp  uint32
  Children         []*FileEntry

}


func (self *FileEntry) IsDir() bool { return self.Flags&STFS_FLAG_DIRECTORY != 0 }

func (self *FileEntry) Consecutive() bool {
  return self.Flags&STFS_FLAG_CONSECUTIVE != 0
}

func (self *FileEntry) Created() time.Time {
  return utils.UnpackFATTime ( self.CreatedTimeStamp )
}

func (self *FileEntry) Accessed() time.Time {
  return utils.UnpackFATTime ( self.AccessTimeStamp )
}


func readFileEntry( index int, buf []byte ) (*FileEntry,bool) {

  name_len:= int(buf[0x28]&0x3F)
  if name_len == 0 { return nil,false }
  if name_len > 0x28 { name_len= 0x28 }

  return &FileEntry{
    Index: index,
    Name: string(buf[:name_len]),
    Flags: buf[0x28]&0xC0,
    BlocksForFile: _i24le ( buf[0x29:] ),
    StartingBlock: _i24le ( buf[0x2f:] ),
    PathIndicator: int16(_u16(buf[0x32:])),
    Size: _u32(buf[0x34:]),
    CreatedTimeStamp: _u32(buf[0x38:]),
    AccessTimeStamp: _u32(buf[0x3c:]),
  },true

} // end readFileEntry


/***********/
/* LISTING */
/***********/

type Listing struct {

  Entries []*FileEntry // En l'ordre de la taula
  Root    []*FileEntry

}


// Busca un camí separat per '/'.
func (self *Listing) Find( path string ) (*FileEntry,bool) {

  parts,_:= utils.SplitPath ( path )
  if len(parts) == 0 { return nil,false }
  cur:= self.Root
  var ret *FileEntry
  for _,name:= range parts {
    ret= nil
    for _,e:= range cur {
      if strings.EqualFold ( e.Name, name ) {
        ret= e
        break
      }
    }
    if ret == nil { return nil,false }
    cur= ret.Children
  }

  return ret,true

} // end Find


// Recorre l'arbre en preordre.
func (self *Listing) Walk( fn func(path string, e *FileEntry) error ) error {

  var rec func(prefix string, list []*FileEntry) error
  rec= func(prefix string, list []*FileEntry) error {
    for _,e:= range list {
      path:= prefix + "/" + e.Name
      if err:= fn ( path, e ); err != nil { return err }
      if err:= rec ( path, e.Children ); err != nil { return err }
    }
    return nil
  }

  return rec ( "", self.Root )

} // end Walk


/********/
/* STFS */
/********/

type STFS struct {

  header  *Header
  opts    OpenOptions
  logger  utils.Logger

  // D'on es llig el contingut. Si file és nil s'obri cada vegada
  // amb src.
  file    utils.FileReader
  src     utils.FileSource
  path    string

  mu      sync.Mutex
  listing *Listing

}


// Analitza un paquet STFS ja obert. f ha de continuar obert mentre
// s'use el paquet.
func OpenSTFS( f utils.FileReader, opts OpenOptions ) (*STFS,error) {

  header,err:= readSTFSHeader ( f, opts )
  if err != nil { return nil,parseError ( "", err ) }

  return &STFS{
    header: header,
    opts: opts,
    logger: utils.OrNop ( opts.Logger ),
    file: f,
  },nil

} // end OpenSTFS


func readSTFSHeader( f utils.FileReader, opts OpenOptions ) (*Header,error) {

  header,err:= readHeader ( f, f.Size () )
  if err != nil { return nil,err }
  if header.DescriptorType != FS_STFS {
    return nil,fmt.Errorf ( "%w: not an STFS package (%s)",
      ErrUnsupportedVersion, header.DescriptorType )
  }
  if opts.Verify {
    if err:= header.verify ( f, f.Size () ); err != nil { return nil,err }
  }

  return header,nil

} // end readSTFSHeader


func newSTFSFromSource(

  src    utils.FileSource,
  path   string,
  header *Header,
  opts   OpenOptions,

) *STFS {
  return &STFS{
    header: header,
    opts: opts,
    logger: utils.OrNop ( opts.Logger ),
    src: src,
    path: path,
  }
} // end newSTFSFromSource


func (self *STFS) Header() *Header { return self.header }


// Executa fn amb el fitxer del paquet obert.
func (self *STFS) withFile( fn func(f utils.FileReader) error ) error {

  if self.file != nil { return fn ( self.file ) }
  f,err:= self.src.OpenFile ( self.path )
  if err != nil { return err }
  defer f.Close ()

  return fn ( f )

} // end withFile


// Torna el llistat de fitxers. Es calcula la primera vegada i es
// guarda; amb force es torna a llegir la taula.
func (self *STFS) GetFileListing( force bool ) (*Listing,error) {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if self.listing != nil && !force { return self.listing,nil }
  err:= self.withFile ( func(f utils.FileReader) error {
    tmp,err:= self.readListing ( f )
    if err == nil { self.listing= tmp }
    return err
  })
  if err != nil { return nil,parseError ( self.path, err ) }

  return self.listing,nil

} // end GetFileListing


func (self *STFS) readListing( f utils.FileReader ) (*Listing,error) {

  vd:= &self.header.Stfs
  mng:= newStfsFileManager ( f, f.Size (), self.header, self.opts.Verify )
  nblocks:= int32(vd.FileTableBlockCount)
  r,err:= newStfsFile ( mng, nil, vd.FileTableBlockNumber, nblocks, false, -1 )
  if err != nil { return nil,err }

  // Entrades
  ret:= Listing{
    Entries: make ( []*FileEntry, 0, 16 ),
    Root: make ( []*FileEntry, 0, 16 ),
  }
  var buf [_STFS_ENTRY_SIZE]byte
  for i:= 0; i < int(nblocks)*_STFS_ENTRIES_PER_BLOCK; i++ {
    if _,err:= io.ReadFull ( r, buf[:] ); err != nil {
      return nil,fmt.Errorf ( "error while reading file table entry %d: %w",
        i, err )
    }
    if e,ok:= readFileEntry ( i, buf[:] ); ok {
      ret.Entries= append ( ret.Entries, e )
    }
  }

  // Arbre
  by_index:= make ( map[int]*FileEntry, len(ret.Entries) )
  for _,e:= range ret.Entries { by_index[e.Index]= e }
  for _,e:= range ret.Entries {
    if e.PathIndicator == -1 {
      ret.Root= append ( ret.Root, e )
      continue
    }
    parent,ok:= by_index[int(e.PathIndicator)]
    if !ok || !parent.IsDir () || parent == e {
      self.logger.Warn ( "STFS entry with invalid parent",
        "name", e.Name, "parent", e.PathIndicator )
      ret.Root= append ( ret.Root, e )
      continue
    }
    parent.Children= append ( parent.Children, e )
  }

  return &ret,nil

} // end readListing


// Obri un fitxer del paquet. Cal tancar-lo.
func (self *STFS) OpenFile( e *FileEntry ) (io.ReadCloser,error) {

  if e.IsDir () {
    return nil,fmt.Errorf ( "'%s' is a directory", e.Name )
  }
  f:= self.file
  var closer io.Closer
  if f == nil {
    var err error
    if f,err= self.src.OpenFile ( self.path ); err != nil { return nil,err }
    closer= f
  }
  mng:= newStfsFileManager ( f, f.Size (), self.header, self.opts.Verify )
  ret,err:= newStfsFile ( mng, closer, e.StartingBlock, e.BlocksForFile,
    e.Consecutive (), int64(e.Size) )
  if err != nil {
    if closer != nil { closer.Close () }
    return nil,err
  }

  return ret,nil

} // end OpenFile


func (self *STFS) ReadFile( e *FileEntry ) ([]byte,error) {

  r,err:= self.OpenFile ( e )
  if err != nil { return nil,err }
  defer r.Close ()

  return io.ReadAll ( r )

} // end ReadFile
