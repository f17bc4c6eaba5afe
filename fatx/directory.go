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
 *  directory.go - Entrades de directori i iteradors.
 *
 */

package fatx

import (
  "encoding/binary"
  "fmt"
  "io"
  "strings"
  "time"

  "github.com/go-restruct/restruct"

  "github.com/adriagipas/xcontent/utils"
)


/**************/
/* RAW DIRENT */
/**************/

const (
  _DIRENT_END     = 0x00
  _DIRENT_END2    = 0xFF
  _DIRENT_DELETED = 0xE5
)

type _RawDirent struct {
  NameLen      uint8
  Attributes   uint8
  Name         [MAX_NAME_LEN]byte
  FirstCluster uint32
  Size         uint32
  Created      uint32
  Modified     uint32
  Accessed     uint32
}


/************/
/* DIRENTRY */
/************/

type DirEntry struct {

  Name         string
  Attributes   uint8
  FirstCluster uint32
  Size         uint32
  Created      time.Time
  Modified     time.Time
  Accessed     time.Time

  // Ubicació de l'entrada. cluster==0 vol dir l'arrel.
  cluster uint32
  index   int

}


func (self *DirEntry) IsDir() bool {
  return self.Attributes&ATTR_DIRECTORY != 0
}


func (self *DirEntry) raw() _RawDirent {

  ret := _RawDirent{
    NameLen: uint8(len(self.Name)),
    Attributes: self.Attributes,
    FirstCluster: self.FirstCluster,
    Size: self.Size,
    Created: utils.PackFATTime ( self.Created ),
    Modified: utils.PackFATTime ( self.Modified ),
    Accessed: utils.PackFATTime ( self.Accessed ),
  }
  for i := range ret.Name { ret.Name[i]= 0xFF }
  copy ( ret.Name[:], self.Name )

  return ret

} // end raw


// Imprimeix la línia de 'ls'.
func (self *DirEntry) List( file io.Writer ) {

  P := func(args... any) {
    fmt.Fprint ( file, args... )
  }

  if self.IsDir () { P("d") } else { P("-") }
  if self.Attributes&ATTR_HIDDEN != 0 { P("h") } else { P("-") }
  if self.Attributes&ATTR_SYSTEM != 0 { P("s") } else { P("-") }
  if self.Attributes&ATTR_ARCHIVE != 0 { P("a") } else { P("-") }
  if self.Attributes&ATTR_READ_ONLY != 0 { P("-") } else { P("w") }
  P("  ")
  size := utils.NumBytesToStr ( uint64(self.Size) )
  for i := 0; i < 10-len(size); i++ {
    P(" ")
  }
  P(size,"  ")
  if self.Modified.IsZero () {
    P("--/--/----  --:--:--  ")
  } else {
    P(self.Modified.Format ( "02/01/2006  15:04:05  " ))
  }
  P(self.Name,"\n")

} // end List


/************/
/* VALIDATE */
/************/

// Caràcters acceptats en noms FATX a més de lletres i dígits.
const _NAME_EXTRA = " !#$%&'()+,-.;=@[]^_`{}~"

func checkName( name string ) error {

  if len(name) == 0 || name == "." || name == ".." {
    return fmt.Errorf ( "%w: '%s'", ErrInvalidName, name )
  }
  if len(name) > MAX_NAME_LEN {
    return fmt.Errorf ( "%w: '%s' (%d > %d)", ErrNameTooLong, name,
      len(name), MAX_NAME_LEN )
  }
  for i := 0; i < len(name); i++ {
    c := name[i]
    if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') &&
      (c < '0' || c > '9') && strings.IndexByte ( _NAME_EXTRA, c ) == -1 {
      return fmt.Errorf ( "%w: character %q not supported in '%s'",
        ErrInvalidName, c, name )
    }
  }

  return nil

} // end checkName


/************/
/* DIR ITER */
/************/

// Recorregut lazy d'un directori. Cada cluster de la cadena es llig
// quan cal. Reset torna a la primera entrada.
type DirIter struct {

  vol      *Volume
  first    uint32
  clusters []uint32
  ci       int    // Cluster actual
  pos      int    // Entrada dins del cluster
  buf      []byte // Contingut del cluster ci
  loaded   int    // Índex del cluster carregat en buf, -1 cap
  cur      DirEntry
  end      bool

}


func (self *Volume) newDirIter( first uint32 ) (*DirIter,error) {

  ret := DirIter{
    vol: self,
    first: first,
    buf: make ( []byte, self.geo.cluster_size ),
  }
  if err := ret.reset (); err != nil { return nil,err }

  return &ret,nil

} // end newDirIter


func (self *DirIter) reset() error {

  clusters,err := self.vol.fat.chain ( self.first )
  if err != nil { return err }
  self.clusters= clusters
  self.ci,self.pos,self.loaded,self.end= 0,-1,-1,false

  return self.next ()

} // end reset


func (self *DirIter) entriesPerCluster() int {
  return int(self.vol.geo.cluster_size/_DIRENT_SIZE)
}


// Avança fins a la següent entrada vàlida o el final.
func (self *DirIter) next() error {

  if self.end { return nil }
  per := self.entriesPerCluster ()
  for {

    // Següent posició
    self.pos++
    if self.pos >= per {
      self.pos= 0
      self.ci++
    }
    if self.ci >= len(self.clusters) {
      self.end= true
      return nil
    }
    if self.loaded != self.ci {
      if err := self.vol.readCluster ( self.clusters[self.ci],
        self.buf ); err != nil {
        return err
      }
      self.loaded= self.ci
    }

    // Comprova entrada
    off := self.pos*_DIRENT_SIZE
    data := self.buf[off:off+_DIRENT_SIZE]
    switch data[0] {
    case _DIRENT_END, _DIRENT_END2:
      self.end= true
      return nil
    case _DIRENT_DELETED:
      continue
    }
    var raw _RawDirent
    if err := restruct.Unpack ( data, binary.BigEndian, &raw ); err != nil {
      return err
    }
    if raw.NameLen > MAX_NAME_LEN {
      self.vol.logger.Debug ( "skipping corrupted directory entry",
        "cluster", self.clusters[self.ci], "index", self.pos,
        "name_len", raw.NameLen )
      continue
    }
    self.cur= DirEntry{
      Name: string(raw.Name[:raw.NameLen]),
      Attributes: raw.Attributes,
      FirstCluster: raw.FirstCluster,
      Size: raw.Size,
      Created: utils.UnpackFATTime ( raw.Created ),
      Modified: utils.UnpackFATTime ( raw.Modified ),
      Accessed: utils.UnpackFATTime ( raw.Accessed ),
      cluster: self.clusters[self.ci],
      index: self.pos,
    }
    return nil

  }

} // end next


func (self *DirIter) End() bool { return self.end }


// Entrada actual. Sols té sentit si !End().
func (self *DirIter) Entry() DirEntry { return self.cur }


func (self *DirIter) Next() error {
  self.vol.mu.RLock ()
  defer self.vol.mu.RUnlock ()
  return self.next ()
} // end Next


func (self *DirIter) Reset() error {
  self.vol.mu.RLock ()
  defer self.vol.mu.RUnlock ()
  return self.reset ()
} // end Reset


/**********/
/* LOOKUP */
/**********/

func (self *Volume) rootEntry() DirEntry {
  return DirEntry{
    Name: "",
    Attributes: ATTR_DIRECTORY,
    FirstCluster: self.header.RootCluster,
  }
} // end rootEntry


// Busca name dins del directori que comença en first. Les
// comparacions no distingeixen majúscules.
func (self *Volume) findIn( first uint32, name string ) (DirEntry,bool,error) {

  it,err := self.newDirIter ( first )
  if err != nil { return DirEntry{},false,err }
  for ; !it.end; {
    if strings.EqualFold ( it.cur.Name, name ) {
      return it.cur,true,nil
    }
    if err := it.next (); err != nil { return DirEntry{},false,err }
  }

  return DirEntry{},false,nil

} // end findIn


// Resol un camí absolut. L'arrel torna una entrada sintètica.
func (self *Volume) lookup( path string ) (DirEntry,error) {

  parts,_ := utils.SplitPath ( path )
  cur := self.rootEntry ()
  for i,name := range parts {
    if !cur.IsDir () {
      return DirEntry{},fmt.Errorf ( "%w: '%s'", ErrNotDir,
        "/"+strings.Join ( parts[:i], "/" ) )
    }
    e,ok,err := self.findIn ( cur.FirstCluster, name )
    if err != nil { return DirEntry{},err }
    if !ok {
      return DirEntry{},fmt.Errorf ( "%w: '%s'", ErrNotFound, path )
    }
    cur= e
  }

  return cur,nil

} // end lookup


func (self *Volume) lookupDir( path string ) (DirEntry,error) {
  e,err := self.lookup ( path )
  if err != nil { return e,err }
  if !e.IsDir () {
    return e,fmt.Errorf ( "%w: '%s'", ErrNotDir, path )
  }
  return e,nil
} // end lookupDir


/**********/
/* PUBLIC */
/**********/

// Obri un iterador sobre el directori indicat.
func (self *Volume) OpenDir( path string ) (*DirIter,error) {

  self.mu.RLock ()
  defer self.mu.RUnlock ()
  e,err := self.lookupDir ( path )
  if err != nil { return nil,err }

  return self.newDirIter ( e.FirstCluster )

} // end OpenDir


func (self *Volume) ReadDir( path string ) ([]DirEntry,error) {

  self.mu.RLock ()
  defer self.mu.RUnlock ()
  e,err := self.lookupDir ( path )
  if err != nil { return nil,err }
  it,err := self.newDirIter ( e.FirstCluster )
  if err != nil { return nil,err }
  ret := make ( []DirEntry, 0, 8 )
  for ; !it.end; {
    ret= append ( ret, it.cur )
    if err := it.next (); err != nil { return nil,err }
  }

  return ret,nil

} // end ReadDir


func (self *Volume) Stat( path string ) (DirEntry,error) {
  self.mu.RLock ()
  defer self.mu.RUnlock ()
  return self.lookup ( path )
} // end Stat


/**********/
/* ESCRIU */
/**********/

func (self *Volume) direntOffset( cluster uint32, index int ) int64 {
  return self.clusterOffset ( cluster ) + int64(index)*_DIRENT_SIZE
}


func (self *Volume) writeDirent( e *DirEntry ) error {

  raw := e.raw ()
  data,err := restruct.Pack ( binary.BigEndian, &raw )
  if err != nil { return err }

  return self.writeAt ( data, self.direntOffset ( e.cluster, e.index ) )

} // end writeDirent


// Busca una entrada lliure en el directori. Si no n'hi ha amplia la
// cadena amb un cluster nou ple de 0xFF.
func (self *Volume) freeSlot( first uint32 ) (uint32,int,error) {

  clusters,err := self.fat.chain ( first )
  if err != nil { return 0,0,err }
  per := int(self.geo.cluster_size/_DIRENT_SIZE)
  buf := make ( []byte, self.geo.cluster_size )
  for ci,c := range clusters {
    if err := self.readCluster ( c, buf ); err != nil { return 0,0,err }
    for i := 0; i < per; i++ {
      switch buf[i*_DIRENT_SIZE] {
      case _DIRENT_DELETED:
        return c,i,nil
      case _DIRENT_END, _DIRENT_END2:
        // Manté el marcador de final després de l'entrada nova
        if err := self.markEnd ( clusters, ci, i+1, per ); err != nil {
          return 0,0,err
        }
        return c,i,nil
      }
    }
  }

  // Amplia
  c,err := self.fat.alloc ()
  if err != nil { return 0,0,err }
  fill ( buf, 0xFF )
  if err := self.writeAt ( buf, self.clusterOffset ( c ) ); err != nil {
    self.fat.release ( []uint32{c} )
    return 0,0,err
  }
  self.fat.set ( clusters[len(clusters)-1], c )
  if err := self.flushFAT (); err != nil { return 0,0,err }

  return c,0,nil

} // end freeSlot


func (self *Volume) markEnd( clusters []uint32, ci, i, per int ) error {

  if i >= per {
    ci,i= ci+1,0
    if ci >= len(clusters) { return nil }
  }
  off := self.direntOffset ( clusters[ci], i )

  return self.writeAt ( []byte{_DIRENT_END2}, off )

} // end markEnd
