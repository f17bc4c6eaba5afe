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
 *  fatx.go - Volums FATX de la Xbox 360.
 *
 *  Disposició:
 *    0x0000            Capçalera (XTAF)
 *    0x1000            FAT (entrades de 2 o 4 bytes, arrodonida a 0x1000)
 *    0x1000+fat_size   Clusters de dades, el primer és el número 1
 *
 */

package fatx

import (
  "encoding/binary"
  "fmt"
  "io"
  "sync"

  "github.com/go-restruct/restruct"

  "github.com/adriagipas/xcontent/utils"
)


/*************/
/* CONSTANTS */
/*************/

const (
  _HEADER_AREA = 0x1000
  _SECTOR_SIZE = 0x200
  _DIRENT_SIZE = 0x40

  MAX_NAME_LEN = 42

  ATTR_READ_ONLY = 0x01
  ATTR_HIDDEN    = 0x02
  ATTR_SYSTEM    = 0x04
  ATTR_DIRECTORY = 0x10
  ATTR_ARCHIVE   = 0x20
)

var _MAGIC = [4]byte{'X','T','A','F'}


/**********/
/* HEADER */
/**********/

type _Header struct {
  Magic             [4]byte
  VolumeID          uint32
  SectorsPerCluster uint32
  RootCluster       uint32
  Unknown           uint16
}

const _HEADER_SIZE = 18


/************/
/* GEOMETRY */
/************/

type _Geometry struct {

  cluster_size  int64
  cluster_count int64  // Entrades de la FAT
  entry_size    int    // 2 o 4
  fat_size      int64
  data_start    int64
  nclusters     uint32 // Clusters de dades utilitzables

}


func computeGeometry( length int64, spc uint32 ) (_Geometry,error) {

  var ret _Geometry

  // Sectors per cluster ha de ser potència de 2
  if spc == 0 || spc > 0x100 || spc&(spc-1) != 0 {
    return ret,fmt.Errorf ( "invalid sectors per cluster: %d", spc )
  }
  ret.cluster_size= int64(spc)*_SECTOR_SIZE
  ret.cluster_count= length/ret.cluster_size
  if ret.cluster_count < 0xFFF0 {
    ret.entry_size= 2
  } else {
    ret.entry_size= 4
  }
  ret.fat_size= ret.cluster_count*int64(ret.entry_size)
  ret.fat_size= (ret.fat_size + _FAT_PAGE - 1)&^(_FAT_PAGE - 1)
  ret.data_start= _HEADER_AREA + ret.fat_size
  if ret.data_start + ret.cluster_size > length {
    return ret,fmt.Errorf ( "partition too small (%d bytes)", length )
  }
  usable := (length - ret.data_start)/ret.cluster_size
  if usable > ret.cluster_count-1 { usable= ret.cluster_count-1 }
  ret.nclusters= uint32(usable)

  return ret,nil

} // end computeGeometry


/**********/
/* VOLUME */
/**********/

// Un volum FATX obert sobre una regió. Tots els mètodes públics són
// segurs per a ús concurrent; les escriptures se serialitzen.
type Volume struct {

  mu       sync.RWMutex
  dev      io.ReaderAt
  w        io.WriterAt // nil si és de sols lectura
  length   int64
  logger   utils.Logger
  header   _Header
  geo      _Geometry
  fat      *_Table

}


type _Writable interface {
  Writable() bool
}


// Llig la capçalera i calcula la geometria.
func readHeader( dev io.ReaderAt, length int64 ) (_Header,_Geometry,error) {

  var header _Header
  var buf [_HEADER_SIZE]byte
  if err := utils.ReadBytes ( dev, 0, length, buf[:], 0 ); err != nil {
    return header,_Geometry{},&VolumeOpenError{"unreadable header", err}
  }
  if err := restruct.Unpack ( buf[:], binary.BigEndian, &header ); err != nil {
    return header,_Geometry{},&VolumeOpenError{"unreadable header", err}
  }
  if header.Magic != _MAGIC {
    return header,_Geometry{},&VolumeOpenError{
      Reason: fmt.Sprintf ( "bad signature %q", header.Magic[:] ),
    }
  }

  // Geometria
  geo,err := computeGeometry ( length, header.SectorsPerCluster )
  if err != nil {
    return header,geo,&VolumeOpenError{"bad geometry", err}
  }
  if header.RootCluster < 1 || header.RootCluster > geo.nclusters {
    return header,geo,&VolumeOpenError{
      Reason: fmt.Sprintf ( "invalid root cluster %d", header.RootCluster ),
    }
  }

  return header,geo,nil

} // end readHeader


// Resum de la capçalera d'un volum.
type HeaderInfo struct {
  VolumeID          uint32
  SectorsPerCluster uint32
  RootCluster       uint32
  ClusterSize       int64
  Clusters          uint32
}


// Comprova que en [0,length) de dev hi ha un volum FATX sense llegir
// la FAT.
func Probe( dev io.ReaderAt, length int64 ) (*HeaderInfo,error) {

  header,geo,err := readHeader ( dev, length )
  if err != nil { return nil,err }

  return &HeaderInfo{
    VolumeID: header.VolumeID,
    SectorsPerCluster: header.SectorsPerCluster,
    RootCluster: header.RootCluster,
    ClusterSize: geo.cluster_size,
    Clusters: geo.nclusters,
  },nil

} // end Probe


// Obri el volum que ocupa [0,length) de dev. Si dev implementa
// io.WriterAt el volum es pot modificar.
func Open( dev io.ReaderAt, length int64, logger utils.Logger ) (*Volume,error) {

  logger= utils.OrNop ( logger )
  header,geo,err := readHeader ( dev, length )
  if err != nil { return nil,err }
  ret := Volume{
    dev: dev,
    length: length,
    logger: logger,
    header: header,
    geo: geo,
  }

  // FAT
  data := make ( []byte, geo.fat_size )
  if err := utils.ReadBytes ( dev, 0, length, data,
    _HEADER_AREA ); err != nil {
    return nil,&VolumeOpenError{"unreadable FAT", err}
  }
  ret.fat= newTable ( data, geo.entry_size, geo.nclusters )

  // Escriptura
  if w,ok := dev.(io.WriterAt); ok {
    ret.w= w
    if tmp,ok := dev.(_Writable); ok && !tmp.Writable () {
      ret.w= nil
    }
  }
  logger.Debug ( "FATX volume opened",
    "volume_id", fmt.Sprintf ( "%08X", ret.header.VolumeID ),
    "cluster_size", geo.cluster_size,
    "clusters", geo.nclusters,
    "fat_entry_size", geo.entry_size,
    "writable", ret.w != nil )

  return &ret,nil

} // end Open


// Crea un volum buit: capçalera, FAT amb la cadena de l'arrel i el
// cluster arrel buit.
func Format(

  dev       io.WriterAt,
  length    int64,
  spc       uint32,
  volume_id uint32,

) error {

  geo,err := computeGeometry ( length, spc )
  if err != nil { return err }

  // Capçalera
  header := _Header{
    Magic: _MAGIC,
    VolumeID: volume_id,
    SectorsPerCluster: spc,
    RootCluster: 1,
  }
  raw,err := restruct.Pack ( binary.BigEndian, &header )
  if err != nil { return err }
  area := make ( []byte, _HEADER_AREA )
  copy ( area, raw )
  if err := utils.WriteBytes ( dev, 0, length, area, 0 ); err != nil {
    return err
  }

  // FAT
  fat := newTable ( make ( []byte, geo.fat_size ), geo.entry_size,
    geo.nclusters )
  fat.set ( 0, _FAT_MEDIA )
  fat.set ( 1, _FAT_END )
  for off := int64(0); off < geo.fat_size; off+= _FAT_PAGE {
    fat.dirty[off/_FAT_PAGE]= true
  }
  if err := fat.flush ( dev, _HEADER_AREA, length ); err != nil {
    return err
  }

  // Arrel
  root := make ( []byte, geo.cluster_size )
  fill ( root, 0xFF )

  return utils.WriteBytes ( dev, 0, length, root, geo.data_start )

} // end Format


func fill( buf []byte, val byte ) {
  for i := range buf { buf[i]= val }
}


func (self *Volume) VolumeID() uint32 { return self.header.VolumeID }

func (self *Volume) ClusterSize() int64 { return self.geo.cluster_size }

func (self *Volume) Writable() bool { return self.w != nil }


// Espai lliure en bytes.
func (self *Volume) FreeSpace() uint64 {
  self.mu.RLock ()
  defer self.mu.RUnlock ()
  return uint64(self.fat.free)*uint64(self.geo.cluster_size)
} // end FreeSpace


func (self *Volume) TotalSpace() uint64 {
  return uint64(self.geo.nclusters)*uint64(self.geo.cluster_size)
} // end TotalSpace


func (self *Volume) PrintInfo( file io.Writer, prefix string ) error {

  F := func(format string, args... any) {
    fmt.Fprint ( file, prefix )
    fmt.Fprintf ( file, format, args... )
    fmt.Fprint ( file, "\n" )
  }

  self.mu.RLock ()
  defer self.mu.RUnlock ()
  F("FATX volume")
  F("")
  F("  * VOLUME ID:        %08X", self.header.VolumeID )
  F("  * SECTORS/CLUSTER:  %d", self.header.SectorsPerCluster )
  F("  * CLUSTER SIZE:     %s",
    utils.NumBytesToStr ( uint64(self.geo.cluster_size) ) )
  F("  * CLUSTERS:         %d", self.geo.nclusters )
  F("  * FAT ENTRY SIZE:   %d bits", self.geo.entry_size*8 )
  F("  * ROOT CLUSTER:     %d", self.header.RootCluster )
  F("  * TOTAL SPACE:      %s", utils.NumBytesToStr ( self.TotalSpace () ) )
  F("  * FREE SPACE:       %s", utils.NumBytesToStr (
    uint64(self.fat.free)*uint64(self.geo.cluster_size) ) )

  return nil

} // end PrintInfo


/*********************/
/* CLUSTERS (INTERN) */
/*********************/

func (self *Volume) clusterOffset( c uint32 ) int64 {
  return self.geo.data_start + int64(c-1)*self.geo.cluster_size
} // end clusterOffset


func (self *Volume) readCluster( c uint32, buf []byte ) error {
  if err := utils.ReadBytes ( self.dev, 0, self.length, buf,
    self.clusterOffset ( c ) ); err != nil {
    return fmt.Errorf ( "error while reading cluster %d: %w", c, err )
  }
  return nil
} // end readCluster


func (self *Volume) writeAt( buf []byte, off int64 ) error {
  if self.w == nil { return ErrReadOnly }
  return utils.WriteBytes ( self.w, 0, self.length, buf, off )
} // end writeAt


func (self *Volume) flushFAT() error {
  if self.w == nil { return ErrReadOnly }
  return self.fat.flush ( self.w, _HEADER_AREA, self.length )
} // end flushFAT


// Allibera una cadena i escriu la FAT.
func (self *Volume) releaseChain( clusters []uint32 ) error {
  if len(clusters) == 0 { return nil }
  self.fat.release ( clusters )
  return self.flushFAT ()
} // end releaseChain


func (self *Volume) checkWritable() error {
  if self.w == nil { return ErrReadOnly }
  return nil
}

