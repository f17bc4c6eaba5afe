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
 *  header.go - Capçalera comuna dels paquets XContent (CON/LIVE/PIRS).
 *
 *  Els offsets de les metadades són relatius a 0x22C.
 *
 */

package x360

import (
  "bytes"
  "crypto/sha1"
  "encoding/hex"
  "fmt"
  "io"
  "strings"

  "golang.org/x/text/encoding"
  "golang.org/x/text/encoding/unicode"

  "github.com/adriagipas/xcontent/utils"
)


/*********/
/* TIPUS */
/*********/

const (
  STFS_TYPE_CONS = 0
  STFS_TYPE_PIRS = 1
  STFS_TYPE_LIVE = 2

  PLATFORM_XBOX360 = 0
  PLATFORM_PC = 1
  PLATFORM_UNK = -1
)

// Sistema de fitxers intern del paquet (descriptor type a 0x3A9).
type FileSystem int

const (
  FS_STFS FileSystem = 0
  FS_SVOD FileSystem = 1
)

func (self FileSystem) String() string {
  switch self {
  case FS_STFS:
    return "STFS"
  case FS_SVOD:
    return "SVOD"
  default:
    return fmt.Sprintf ( "Unknown (%d)", int(self) )
  }
} // end String

const _STFS_HEADER_SIZE = 0x22C
const _STFS_METADATA_SIZE = 0x94EE
const HEADER_SIZE = _STFS_HEADER_SIZE + _STFS_METADATA_SIZE

const _VOLUME_DESCRIPTOR_SIZE = 0x24
const _THUMBNAIL_MAX_V1 = 0x4000
const _THUMBNAIL_MAX_V2 = 0x3D00


type Certificate struct {

  // LIVE/PIRS
  PackageSignature [0x100]byte

  // CONS
  CertOwnConsoleID         [5]byte
  CertOwnConsolePartNumber string
  CertOwnConsoleType       uint8
  CertDateGeneration       string
  PublicExponent           [4]byte
  PublicModulus            [0x80]byte
  CertSignature            [0x100]byte
  Signature                [0x80]byte

}


type STFSVolumeDescriptor struct {

  BlockSeparation            uint8
  FileTableBlockCount        uint16
  FileTableBlockNumber       int32
  TopHashTableHash           [0x14]byte
  TotalAllocatedBlockCount   int32
  TotalUnallocatedBlockCount int32

}


type SVODVolumeDescriptor struct {

  BlockCacheElementCount  uint8
  WorkerThreadProcessor   uint8
  WorkerThreadPriority    uint8
  RootHash                [0x14]byte
  Flags                   uint8
  DataBlockCount          int32
  DataBlockOffset         int32

}


// Capçalera i metadades d'un paquet. La llegeix sempre el parser,
// tant si després es llig el llistat com si no.
type Header struct {

  Magic       int
  Certificate Certificate

  HeaderHash         [0x14]byte
  HeaderSize         uint32
  ContentType        ContentType
  MetadataVersion    uint32
  ContentSize        int64
  MediaID            uint32
  Version            int32
  BaseVersion        int32
  TitleID            uint32
  Platform           int
  ExecutableType     uint8
  DiscNumber         uint8
  DiscInSet          uint8
  SaveGameID         uint32
  ConsoleID          [5]byte
  ProfileID          [8]byte
  Stfs               STFSVolumeDescriptor
  Svod               SVODVolumeDescriptor
  DataFileCount      int32
  DataFileCombSize   int64
  DescriptorType     FileSystem
  DeviceID           [0x14]byte
  DisplayName        [12]string
  DisplayDescription [12]string
  PublisherName      string
  TitleName          string
  TransferFlags      uint8

  // Metadata Version 2
  SeriesID      [0x10]byte
  SeasonID      [0x10]byte
  SeasonNumber  int16
  EpisodeNumber int16

  thumbnail       []byte
  title_thumbnail []byte

}


/************/
/* FUNCIONS */
/************/

func _u16( v []byte ) uint16 {
  return (uint16(v[0])<<8) | uint16(v[1])
} // end _u16


func _u32( v []byte ) uint32 {
  return (uint32(v[0])<<24) |
    (uint32(v[1])<<16) |
    (uint32(v[2])<<8) |
    uint32(v[3])
} // end _u32


func _u64( v []byte ) uint64 {
  return (uint64(_u32 ( v ))<<32) | uint64(_u32 ( v[4:] ))
} // end _u64


// Enter de 24 bits amb signe, big endian.
func _i24be( v []byte ) int32 {
  tmp := (uint32(v[0])<<16) | (uint32(v[1])<<8) | uint32(v[2])
  if tmp&0x800000 != 0 { tmp|= 0xFF000000 }
  return int32(tmp)
} // end _i24be


// Enter de 24 bits amb signe, little endian.
func _i24le( v []byte ) int32 {
  tmp := (uint32(v[2])<<16) | (uint32(v[1])<<8) | uint32(v[0])
  if tmp&0x800000 != 0 { tmp|= 0xFF000000 }
  return int32(tmp)
} // end _i24le


func _str( dec *encoding.Decoder, data []byte ) (ret string) {

  // Talla en el primer caràcter nul (UTF-16)
  for i := 0; i+1 < len(data); i+= 2 {
    if data[i] == 0 && data[i+1] == 0 {
      data= data[:i]
      break
    }
  }
  if aux,err:= dec.Bytes ( data ); err == nil {
    aux= bytes.TrimRight ( aux, "\000" )
    ret= string(aux)
  } else {
    data= bytes.TrimRight ( data, "\000" )
    ret= string(data)
  }

  return

} // end _str


func (self *STFSVolumeDescriptor) Read( v []byte ) {

  // v[0] grandària, v[1] reservat
  self.BlockSeparation= v[2]
  self.FileTableBlockCount= uint16(v[3]) | (uint16(v[4])<<8)
  self.FileTableBlockNumber= _i24le ( v[5:] )
  copy ( self.TopHashTableHash[:], v[8:8+0x14] )
  self.TotalAllocatedBlockCount= int32(_u32(v[0x1c:]))
  self.TotalUnallocatedBlockCount= int32(_u32(v[0x20:]))

} // STFSVolumeDescriptor.Read


func (self *SVODVolumeDescriptor) Read( v []byte ) {

  self.BlockCacheElementCount= v[1]
  self.WorkerThreadProcessor= v[2]
  self.WorkerThreadPriority= v[3]
  copy ( self.RootHash[:], v[4:4+0x14] )
  self.Flags= v[0x18]
  self.DataBlockCount= _i24le ( v[0x19:] )
  self.DataBlockOffset= _i24le ( v[0x1c:] )

} // SVODVolumeDescriptor.Read


func (self *Header) readMetadata( buf []byte ) error {

  self.HeaderHash= [0x14]byte(buf[0x100:0x100+0x14])
  self.HeaderSize= _u32(buf[0x114:])
  self.ContentType= ContentType(_u32(buf[0x118:]))
  self.MetadataVersion= _u32(buf[0x11c:])
  if self.MetadataVersion != 1 && self.MetadataVersion != 2 {
    return fmt.Errorf ( "%w: metadata version %d",
      ErrUnsupportedVersion, self.MetadataVersion )
  }
  self.ContentSize= int64(_u64(buf[0x120:]))
  self.MediaID= _u32(buf[0x128:])
  self.Version= int32(_u32(buf[0x12c:]))
  self.BaseVersion= int32(_u32(buf[0x130:]))
  self.TitleID= _u32(buf[0x134:])
  switch buf[0x138] {
  case 2:
    self.Platform= PLATFORM_XBOX360
  case 4:
    self.Platform= PLATFORM_PC
  default:
    self.Platform= PLATFORM_UNK
  }
  self.ExecutableType= uint8(buf[0x139])
  self.DiscNumber= uint8(buf[0x13a])
  self.DiscInSet= uint8(buf[0x13b])
  self.SaveGameID= _u32(buf[0x13c:])
  copy ( self.ConsoleID[:], buf[0x140:0x140+5] )
  copy ( self.ProfileID[:], buf[0x145:0x145+8] )

  // Descriptor del volum
  if buf[0x14d] != _VOLUME_DESCRIPTOR_SIZE {
    return fmt.Errorf ( "%w: invalid volume descriptor size (%d)",
      ErrUnsupportedVersion, uint8(buf[0x14d]) )
  }
  self.DataFileCount= int32(_u32(buf[0x171:]))
  self.DataFileCombSize= int64(_u64(buf[0x175:]))
  switch tmp := _u32(buf[0x17d:]); tmp {
  case 0:
    self.DescriptorType= FS_STFS
    self.Stfs.Read ( buf[0x14d:] )
  case 1:
    self.DescriptorType= FS_SVOD
    self.Svod.Read ( buf[0x14d:] )
  default:
    return fmt.Errorf ( "%w: unknown descriptor type %d",
      ErrUnsupportedVersion, tmp )
  }

  // Textos
  copy ( self.DeviceID[:], buf[0x1d1:0x1d1+0x14] )
  dec:= unicode.UTF16(unicode.BigEndian,unicode.IgnoreBOM).NewDecoder ()
  for i:= 0; i < 9; i++ {
    self.DisplayName[i]= _str(dec,buf[0x1e5+i*0x100:0x1e5+(i+1)*0x100])
  }
  for i:= 0; i < 9; i++ {
    self.DisplayDescription[i]= _str(dec,buf[0xae5+i*0x100:0xae5+(i+1)*0x100])
  }
  self.PublisherName= _str(dec,buf[0x13e5:0x13e5+0x80])
  self.TitleName= _str(dec,buf[0x1465:0x1465+0x80])
  self.TransferFlags= uint8(buf[0x14e5])

  // Miniatures. Si la grandària no té sentit es descarta.
  max_size := uint32(_THUMBNAIL_MAX_V1)
  if self.MetadataVersion == 2 { max_size= _THUMBNAIL_MAX_V2 }
  if img_size:= _u32(buf[0x14e6:]); img_size > 0 && img_size <= max_size {
    self.thumbnail= make([]byte,img_size)
    copy ( self.thumbnail, buf[0x14ee:0x14ee+img_size] )
  }
  if img_size:= _u32(buf[0x14ea:]); img_size > 0 && img_size <= max_size {
    self.title_thumbnail= make([]byte,img_size)
    copy ( self.title_thumbnail, buf[0x54ee:0x54ee+img_size] )
  }

  // Metadata Version 2
  if self.MetadataVersion == 2 {
    copy ( self.SeriesID[:], buf[0x185:0x185+0x10] )
    copy ( self.SeasonID[:], buf[0x195:0x195+0x10] )
    self.SeasonNumber= int16(_u16(buf[0x1a5:]))
    self.EpisodeNumber= int16(_u16(buf[0x1a9:]))
    for i:= 0; i < 3; i++ {
      self.DisplayName[i+9]= _str(dec,buf[0x51ee+i*0x100:0x51ee+(i+1)*0x100])
    }
    for i:= 0; i < 3; i++ {
      self.DisplayDescription[i+9]= _str(dec,
        buf[0x91ee+i*0x100:0x91ee+(i+1)*0x100])
    }
  }

  return nil

} // end readMetadata


func (self *Certificate) readCons( buf []byte ) {

  copy ( self.CertOwnConsoleID[:], buf[0x6:0x6+0x5] )
  self.CertOwnConsolePartNumber= string(bytes.TrimRight (
    buf[0xb:0xb+0x14], "\000" ))
  self.CertOwnConsoleType= buf[0x1f]
  self.CertDateGeneration= string(buf[0x20:0x20+0x8])
  copy ( self.PublicExponent[:], buf[0x28:0x28+0x4] )
  copy ( self.PublicModulus[:], buf[0x2c:0x2c+0x80] )
  copy ( self.CertSignature[:], buf[0xac:0xac+0x100] )
  copy ( self.Signature[:], buf[0x1ac:0x1ac+0x80] )

} // end readCons


func (self *Certificate) readPirsLive( buf []byte ) {
  copy ( self.PackageSignature[:], buf[0x4:0x4+0x100] )
} // end readPirsLive


// Analitza la capçalera a partir dels primers HEADER_SIZE bytes.
func parseHeader( buf []byte ) (*Header,error) {

  if len(buf) < 4 {
    return nil,fmt.Errorf ( "%w: file too small", ErrBadMagic )
  }

  // Tipus
  ret := Header{}
  switch string(buf[:4]) {
  case "CON ":
    ret.Magic= STFS_TYPE_CONS
  case "PIRS":
    ret.Magic= STFS_TYPE_PIRS
  case "LIVE":
    ret.Magic= STFS_TYPE_LIVE
  default:
    return nil,fmt.Errorf ( "%w: unknown type %q", ErrBadMagic, buf[:4] )
  }
  if len(buf) < HEADER_SIZE {
    return nil,fmt.Errorf ( "truncated header: %d bytes: %w", len(buf),
      io.ErrUnexpectedEOF )
  }

  // Contingut capçalera
  if ret.Magic == STFS_TYPE_CONS {
    ret.Certificate.readCons ( buf )
  } else {
    ret.Certificate.readPirsLive ( buf )
  }
  if err := ret.readMetadata ( buf[_STFS_HEADER_SIZE:] ); err != nil {
    return nil,err
  }

  return &ret,nil

} // end parseHeader


// Llig la capçalera d'un fitxer.
func readHeader( f io.ReaderAt, size int64 ) (*Header,error) {

  n := int64(HEADER_SIZE)
  if size < n { n= size }
  if n < 4 {
    return nil,fmt.Errorf ( "%w: file too small", ErrBadMagic )
  }
  buf := make ( []byte, n )
  if err := utils.ReadBytes ( f, 0, size, buf, 0 ); err != nil {
    return nil,err
  }

  return parseHeader ( buf )

} // end readHeader


// Primer byte després de la capçalera, arrodonit a 0x1000.
func (self *Header) BaseOffset() int64 {
  return (int64(self.HeaderSize) + 0xFFF)&^0xFFF
} // end BaseOffset


// Comprova el hash de la capçalera (SHA1 de [0x344,BaseOffset)).
func (self *Header) verify( f io.ReaderAt, size int64 ) error {

  end := self.BaseOffset ()
  if end <= 0x344 || end > size {
    return fmt.Errorf ( "%w: invalid header size %08X",
      ErrUnsupportedVersion, self.HeaderSize )
  }
  buf := make ( []byte, end-0x344 )
  if err := utils.ReadBytes ( f, 0, size, buf, 0x344 ); err != nil {
    return err
  }
  if sha1.Sum ( buf ) != self.HeaderHash {
    return fmt.Errorf ( "%w: header", ErrHashMismatch )
  }

  return nil

} // end verify


/*************/
/* ACCESSORS */
/*************/

func (self *Header) Kind() FileSystem { return self.DescriptorType }


// Nom en anglés (primera entrada).
func (self *Header) Name() string { return self.DisplayName[0] }

func (self *Header) Description() string { return self.DisplayDescription[0] }


func (self *Header) ProfileIDString() string {
  return strings.ToUpper ( hex.EncodeToString ( self.ProfileID[:] ) )
} // end ProfileIDString


func (self *Header) TitleIDString() string {
  return fmt.Sprintf ( "%08X", self.TitleID )
} // end TitleIDString


func (self *Header) Type() string {

  switch self.Magic {
  case STFS_TYPE_CONS:
    return "CONS"
  case STFS_TYPE_PIRS:
    return "PIRS"
  case STFS_TYPE_LIVE:
    return "LIVE"
  default:
    return "Unknown"
  }

} // end Type


func (self *Header) CertOwnConsoleType() string {
  if self.Magic == STFS_TYPE_CONS {
    switch self.Certificate.CertOwnConsoleType {
    case 1:
      return "Devkit"
    case 2:
      return "Retail"
    default:
      return fmt.Sprintf ( "Unknown (%02x)",
        self.Certificate.CertOwnConsoleType )
    }
  } else {
    return "None"
  }

} // end CertOwnConsoleType


func (self *Header) PlatformString() string {
  switch self.Platform {
  case PLATFORM_XBOX360:
    return "Xbox 360"
  case PLATFORM_PC:
    return "PC"
  default:
    return "Unknown"
  }
} // end PlatformString

