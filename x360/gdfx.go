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
 *  gdfx.go - Sistema de fitxers GDFX (disc) dins dels fitxers de
 *            dades SVOD.
 *
 *  Tot és little endian. Les entrades de directori estan alineades a
 *  4 bytes i no creuen sectors: 0xFFFF en 'left' vol dir que la resta
 *  del sector està buida.
 *
 */

package x360

import (
  "bytes"
  "encoding/binary"
  "fmt"
  "strings"

  "github.com/go-restruct/restruct"

  "github.com/adriagipas/xcontent/utils"
)


/*************/
/* CONSTANTS */
/*************/

const (
  GDFX_SECTOR_SIZE = 0x800

  GDFX_ATTR_READ_ONLY = 0x01
  GDFX_ATTR_HIDDEN    = 0x02
  GDFX_ATTR_SYSTEM    = 0x04
  GDFX_ATTR_DIRECTORY = 0x10
  GDFX_ATTR_ARCHIVE   = 0x20
  GDFX_ATTR_DEVICE    = 0x40
  GDFX_ATTR_NORMAL    = 0x80

  _GDFX_MAGIC      = "MICROSOFT*XBOX*MEDIA"
  _GDFX_ENTRY_SIZE = 14
)


/**************/
/* DESCRIPTOR */
/**************/

type _GdfxDescriptor struct {
  Magic      [20]byte
  RootSector uint32
  RootSize   uint32
  Created    uint64
}


type _RawGdfxEntry struct {
  Left       uint16
  Right      uint16
  Sector     uint32
  Size       uint32
  Attributes uint8
  NameLen    uint8
}


/*********/
/* ENTRY */
/*********/

type GDFXEntry struct {

  Name       string
  Path       string // Camí dins del paquet, comença per '/'
  Attributes uint8
  Sector     uint32
  Size       uint32
  Children   []*GDFXEntry

  // Fitxers de dades on estan els sectors de l'entrada.
  DataFiles  []string

  // On està el registre dins de la taula del directori pare.
  rec_sector uint32
  rec_off    int

}


func (self *GDFXEntry) IsDir() bool {
  return self.Attributes&GDFX_ATTR_DIRECTORY != 0
}


// Grandària arrodonida a sectors.
func (self *GDFXEntry) SizeOnDisk() uint32 {
  return (self.Size + (GDFX_SECTOR_SIZE-1))&^(GDFX_SECTOR_SIZE-1)
}


// Noms dels atributs actius, en l'ordre dels bits.
func (self *GDFXEntry) AttributeNames() []string {

  names:= []struct{
    bit  uint8
    name string
  }{
    {GDFX_ATTR_READ_ONLY,"ReadOnly"},
    {GDFX_ATTR_HIDDEN,"Hidden"},
    {GDFX_ATTR_SYSTEM,"System"},
    {GDFX_ATTR_DIRECTORY,"Directory"},
    {GDFX_ATTR_ARCHIVE,"Archive"},
    {GDFX_ATTR_DEVICE,"Device"},
    {GDFX_ATTR_NORMAL,"Normal"},
  }
  ret:= make ( []string, 0, len(names) )
  for _,n:= range names {
    if self.Attributes&n.bit != 0 { ret= append ( ret, n.name ) }
  }

  return ret

} // end AttributeNames


// Bytes que ocupa un registre amb un nom de n bytes.
func gdfxRecordSize( n int ) int {
  return (_GDFX_ENTRY_SIZE + n + 3)&^3
}


/***********/
/* LISTING */
/***********/

type GDFXListing struct {

  RootSector uint32
  RootSize   uint32
  Root       []*GDFXEntry
  Entries    []*GDFXEntry // Preordre

}


func (self *GDFXListing) Find( path string ) (*GDFXEntry,bool) {

  parts,_:= utils.SplitPath ( path )
  if len(parts) == 0 { return nil,false }
  cur:= self.Root
  var ret *GDFXEntry
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


/**********/
/* PARSER */
/**********/

// Lector de sectors de la imatge. Ho implementa SVOD.
type _SectorReader interface {
  readSector(sector uint32, buf []byte) error
  dataFileIndex(sector uint32) int
}


type _GdfxParser struct {
  r       _SectorReader
  paths   []string
  visited map[uint32]bool
  ret     *GDFXListing
}


func parseGdfx(

  r          _SectorReader,
  desc_sector uint32,
  paths      []string,

) (*GDFXListing,error) {

  // Descriptor
  var buf [GDFX_SECTOR_SIZE]byte
  if err:= r.readSector ( desc_sector, buf[:] ); err != nil {
    return nil,err
  }
  var desc _GdfxDescriptor
  if err:= restruct.Unpack ( buf[:], binary.LittleEndian, &desc ); err != nil {
    return nil,err
  }
  if string(desc.Magic[:]) != _GDFX_MAGIC {
    return nil,fmt.Errorf ( "%w: GDFX descriptor not found", ErrBadMagic )
  }

  p:= _GdfxParser{
    r: r,
    paths: paths,
    visited: make ( map[uint32]bool ),
    ret: &GDFXListing{
      RootSector: desc.RootSector,
      RootSize: desc.RootSize,
    },
  }
  root,err:= p.readDir ( desc.RootSector, desc.RootSize, "" )
  if err != nil { return nil,err }
  p.ret.Root= root

  return p.ret,nil

} // end parseGdfx


func (self *_GdfxParser) readTable( sector, size uint32 ) ([]byte,error) {

  nsectors:= (size + GDFX_SECTOR_SIZE - 1)/GDFX_SECTOR_SIZE
  ret:= make ( []byte, int(nsectors)*GDFX_SECTOR_SIZE )
  for i:= uint32(0); i < nsectors; i++ {
    off:= int(i)*GDFX_SECTOR_SIZE
    if err:= self.r.readSector ( sector+i,
      ret[off:off+GDFX_SECTOR_SIZE] ); err != nil {
      return nil,err
    }
  }

  return ret,nil

} // end readTable


func (self *_GdfxParser) dataFiles( sector, size uint32 ) []string {

  if size == 0 { return []string{} }
  first:= self.r.dataFileIndex ( sector )
  last:= self.r.dataFileIndex ( sector + (size-1)/GDFX_SECTOR_SIZE )
  ret:= make ( []string, 0, last-first+1 )
  for i:= first; i <= last; i++ {
    if i >= 0 && i < len(self.paths) { ret= append ( ret, self.paths[i] ) }
  }

  return ret

} // end dataFiles


func (self *_GdfxParser) readDir(

  sector uint32,
  size   uint32,
  prefix string,

) ([]*GDFXEntry,error) {

  if size == 0 { return []*GDFXEntry{},nil }
  if self.visited[sector] {
    return nil,fmt.Errorf ( "GDFX directory loop at sector %08X", sector )
  }
  self.visited[sector]= true
  table,err:= self.readTable ( sector, size )
  if err != nil { return nil,err }
  table= table[:size]

  ret:= make ( []*GDFXEntry, 0, 8 )
  pos:= 0
  for pos+_GDFX_ENTRY_SIZE <= len(table) {

    // Final del sector
    next_sector:= (pos/GDFX_SECTOR_SIZE + 1)*GDFX_SECTOR_SIZE
    if next_sector-pos < _GDFX_ENTRY_SIZE ||
      bytes.Equal ( table[pos:pos+4], []byte{0xFF,0xFF,0xFF,0xFF} ) {
      pos= next_sector
      continue
    }
    var raw _RawGdfxEntry
    if err:= restruct.Unpack ( table[pos:pos+_GDFX_ENTRY_SIZE],
      binary.LittleEndian, &raw ); err != nil {
      return nil,err
    }
    if raw.NameLen == 0 {
      pos= next_sector
      continue
    }
    name_end:= pos + _GDFX_ENTRY_SIZE + int(raw.NameLen)
    if name_end > len(table) {
      return nil,fmt.Errorf ( "truncated GDFX entry at sector %08X", sector )
    }
    e:= &GDFXEntry{
      Name: string(table[pos+_GDFX_ENTRY_SIZE:name_end]),
      Attributes: raw.Attributes,
      Sector: raw.Sector,
      Size: raw.Size,
      rec_sector: sector + uint32(pos/GDFX_SECTOR_SIZE),
      rec_off: pos%GDFX_SECTOR_SIZE,
    }
    e.Path= prefix + "/" + e.Name
    e.DataFiles= self.dataFiles ( e.Sector, e.Size )
    self.ret.Entries= append ( self.ret.Entries, e )
    if e.IsDir () {
      if e.Children,err= self.readDir ( e.Sector, e.Size, e.Path ); err != nil {
        return nil,err
      }
    }
    ret= append ( ret, e )
    pos= pos + gdfxRecordSize ( len(e.Name) )

  }

  return ret,nil

} // end readDir
