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
 *  svod.go - Secure Virtual Optical Disc.
 *
 *  El contingut està en <path>.data/DataXXXX. Cada fitxer de dades
 *  comença amb un bloc hash mestre i cada 0xCC blocs de 0x1000 hi ha
 *  un bloc hash de nivell 0.
 *
 */

package x360

import (
  "crypto/sha1"
  "errors"
  "fmt"
  "io"
  "strings"

  "github.com/adriagipas/xcontent/utils"
)


/*************/
/* CONSTANTS */
/*************/

const (
  _SVOD_SECTORS_PER_FILE = 0x14388
  _SVOD_BLOCKS_PER_HASH  = 0xCC
  _SVOD_BLOCK_SIZE       = 0x1000

  SVOD_FLAG_ENHANCED = 0x40
)


/********/
/* SVOD */
/********/

type SVOD struct {

  header *Header
  src    utils.FileSource
  path   string
  opts   OpenOptions
  logger utils.Logger

}


func OpenSVOD( src utils.FileSource, path string, opts OpenOptions ) (*SVOD,error) {

  f,err:= src.OpenFile ( path )
  if err != nil { return nil,parseError ( path, err ) }
  defer f.Close ()
  header,err:= readHeader ( f, f.Size () )
  if err != nil { return nil,parseError ( path, err ) }
  if header.DescriptorType != FS_SVOD {
    return nil,parseError ( path, fmt.Errorf (
      "%w: not an SVOD package (%s)",
      ErrUnsupportedVersion, header.DescriptorType ) )
  }
  if opts.Verify {
    if err:= header.verify ( f, f.Size () ); err != nil {
      return nil,parseError ( path, err )
    }
  }

  return newSVOD ( src, path, header, opts ),nil

} // end OpenSVOD


func newSVOD(

  src    utils.FileSource,
  path   string,
  header *Header,
  opts   OpenOptions,

) *SVOD {
  return &SVOD{
    header: header,
    src: src,
    path: path,
    opts: opts,
    logger: utils.OrNop ( opts.Logger ),
  }
} // end newSVOD


func (self *SVOD) Header() *Header { return self.header }


func (self *SVOD) Enhanced() bool {
  return self.header.Svod.Flags&SVOD_FLAG_ENHANCED != 0
}


// Camins dels fitxers de dades, en ordre.
func (self *SVOD) DataFilePaths() []string {

  n:= int(self.header.DataFileCount)
  if n < 0 { n= 0 }
  ret:= make ( []string, n )
  for i:= 0; i < n; i++ {
    ret[i]= fmt.Sprintf ( "%s.data/Data%04d", self.path, i )
  }

  return ret

} // end DataFilePaths


// Torna el llistat GDFX. Es torna a calcular cada vegada.
func (self *SVOD) GetFileListing() (*GDFXListing,error) {

  r:= self.newReader ()
  defer r.Close ()
  ret,err:= parseGdfx ( r, self.descriptorSector (), self.DataFilePaths () )
  if err != nil { return nil,parseError ( self.path, err ) }
  self.logger.Debug ( "GDFX listing loaded",
    "path", self.path, "entries", len(ret.Entries) )

  return ret,nil

} // end GetFileListing


// Sector on està el descriptor GDFX. En la disposició clàssica està
// en el sector 0x20 de la imatge, en la millorada en el primer sector
// de dades.
func (self *SVOD) descriptorSector() uint32 {
  base:= uint32(self.header.Svod.DataBlockOffset)*2
  if self.Enhanced () { return base }
  return base + 0x20
} // end descriptorSector


func (self *SVOD) OpenFile( e *GDFXEntry ) (io.ReadCloser,error) {

  if e.IsDir () {
    return nil,fmt.Errorf ( "'%s' is a directory", e.Name )
  }
  ret:= &_SvodFile{
    r: self.newReader (),
    sector: e.Sector,
    remain: int64(e.Size),
  }

  return ret,nil

} // end OpenFile


func (self *SVOD) ReadFile( e *GDFXEntry ) ([]byte,error) {

  r,err:= self.OpenFile ( e )
  if err != nil { return nil,err }
  defer r.Close ()

  return io.ReadAll ( r )

} // end ReadFile


/***************/
/* DATA READER */
/***************/

// Llig sectors de la imatge obrint els fitxers de dades conforme fan
// falta.
type _SvodReader struct {
  svod  *SVOD
  paths []string
  files map[int]utils.FileReader
}


func (self *SVOD) newReader() *_SvodReader {
  return &_SvodReader{
    svod: self,
    paths: self.DataFilePaths (),
    files: make ( map[int]utils.FileReader ),
  }
} // end newReader


func (self *_SvodReader) relSector( sector uint32 ) int64 {
  return int64(sector) - int64(self.svod.header.Svod.DataBlockOffset)*2
} // end relSector


func (self *_SvodReader) dataFileIndex( sector uint32 ) int {
  rel:= self.relSector ( sector )
  if rel < 0 { return -1 }
  return int(rel/_SVOD_SECTORS_PER_FILE)
} // end dataFileIndex


// Adreça d'un sector dins del seu fitxer de dades.
func sectorAddress( sector_in_file int64 ) int64 {
  block:= sector_in_file/2
  return _SVOD_BLOCK_SIZE +
    (block/_SVOD_BLOCKS_PER_HASH + 1)*_SVOD_BLOCK_SIZE +
    sector_in_file*GDFX_SECTOR_SIZE
} // end sectorAddress


func (self *_SvodReader) readSector( sector uint32, buf []byte ) error {

  rel:= self.relSector ( sector )
  if rel < 0 {
    return fmt.Errorf ( "invalid SVOD sector %08X", sector )
  }
  index:= int(rel/_SVOD_SECTORS_PER_FILE)
  if index >= len(self.paths) {
    return fmt.Errorf ( "SVOD sector %08X out of range (data file %d)",
      sector, index )
  }
  f,ok:= self.files[index]
  if !ok {
    var err error
    if f,err= self.svod.src.OpenFile ( self.paths[index] ); err != nil {
      return err
    }
    self.files[index]= f
  }
  buf= buf[:GDFX_SECTOR_SIZE]
  addr:= sectorAddress ( rel%_SVOD_SECTORS_PER_FILE )
  nbytes,err:= f.ReadAt ( buf, addr )
  if nbytes != len(buf) {
    // L'últim sector del fitxer pot estar retallat
    if nbytes > 0 && errors.Is ( err, io.EOF ) {
      for i:= nbytes; i < len(buf); i++ { buf[i]= 0 }
      return nil
    }
    if err == nil || errors.Is ( err, io.EOF ) { err= io.ErrUnexpectedEOF }
    return fmt.Errorf ( "error while reading SVOD sector %08X: %w",
      sector, err )
  }

  return nil

} // end readSector


func (self *_SvodReader) Close() error {

  var ret error
  for i,f:= range self.files {
    if err:= f.Close (); err != nil && ret == nil { ret= err }
    delete ( self.files, i )
  }

  return ret

} // end Close


/********/
/* FILE */
/********/

type _SvodFile struct {
  r      *_SvodReader
  v      [GDFX_SECTOR_SIZE]byte
  pv     []byte
  sector uint32
  remain int64
}


func (self *_SvodFile) Read( buf []byte ) (int,error) {

  if self.remain == 0 { return 0,io.EOF }
  ret:= 0
  for len(buf) > 0 && self.remain > 0 {
    if len(self.pv) == 0 {
      if err:= self.r.readSector ( self.sector, self.v[:] ); err != nil {
        return ret,err
      }
      self.sector++
      self.pv= self.v[:]
    }
    n:= copy ( buf, self.pv )
    if int64(n) > self.remain { n= int(self.remain) }
    buf= buf[n:]
    self.pv= self.pv[n:]
    self.remain-= int64(n)
    ret+= n
  }

  return ret,nil

} // end _SvodFile.Read


func (self *_SvodFile) Close() error { return self.r.Close () }


/**********/
/* VERIFY */
/**********/

// Comprova que tots els fitxers de dades existeixen.
func (self *SVOD) CheckDataFiles() error {

  var missing []string
  for _,p:= range self.DataFilePaths () {
    f,err:= self.src.OpenFile ( p )
    if err != nil {
      missing= append ( missing, p )
      continue
    }
    f.Close ()
  }
  if len(missing) > 0 {
    return fmt.Errorf ( "missing SVOD data files: %v", missing )
  }

  return nil

} // end CheckDataFiles


/************/
/* MODIFICA */
/************/

// Reescriu en el seu lloc el registre GDFX de e amb un nom i uns
// atributs nous. El registre no pot créixer, així que el nom nou ha
// de cabre en els mateixos bytes alineats que l'anterior. Després
// actualitza el hash de nivell 0 del bloc modificat.
func (self *SVOD) WriteFileEntry( e *GDFXEntry, name string, attrs uint8 ) error {

  w,ok:= self.src.(utils.FileWriterSource)
  if !ok { return ErrReadOnly }
  if name == "" || len(name) > 0xFF || strings.ContainsAny ( name, "/\x00" ) {
    return fmt.Errorf ( "%w: '%s'", ErrInvalidName, name )
  }
  size:= gdfxRecordSize ( len(e.Name) )
  if len(name) > len(e.Name) || gdfxRecordSize ( len(name) ) != size {
    return fmt.Errorf ( "%w: '%s' does not fit in the record of '%s'",
      ErrInvalidName, name, e.Name )
  }
  attrs= (attrs&^GDFX_ATTR_DIRECTORY) | (e.Attributes&GDFX_ATTR_DIRECTORY)

  // Llig el sector del registre
  r:= self.newReader ()
  var sec [GDFX_SECTOR_SIZE]byte
  err:= r.readSector ( e.rec_sector, sec[:] )
  r.Close ()
  if err != nil { return err }
  if e.rec_off+size > GDFX_SECTOR_SIZE {
    return fmt.Errorf ( "invalid GDFX record of '%s'", e.Path )
  }
  rec:= sec[e.rec_off:e.rec_off+size]
  if int(rec[13]) != len(e.Name) ||
    string(rec[_GDFX_ENTRY_SIZE:_GDFX_ENTRY_SIZE+len(e.Name)]) != e.Name {
    return fmt.Errorf ( "GDFX record of '%s' changed since it was listed",
      e.Path )
  }

  // Escriu
  rec[12]= attrs
  rec[13]= byte(len(name))
  for i:= _GDFX_ENTRY_SIZE; i < len(rec); i++ { rec[i]= 0 }
  copy ( rec[_GDFX_ENTRY_SIZE:], name )
  rel:= r.relSector ( e.rec_sector )
  path:= r.paths[rel/_SVOD_SECTORS_PER_FILE]
  in_file:= rel%_SVOD_SECTORS_PER_FILE
  addr:= sectorAddress ( in_file ) + int64(e.rec_off)
  if err:= w.WriteFileAt ( path, rec, addr ); err != nil { return err }
  if err:= self.rehashBlock ( w, path, in_file/2 ); err != nil { return err }

  self.logger.Info ( "GDFX entry updated", "path", self.path,
    "entry", e.Path, "name", name, "attributes", attrs )
  e.Name= name
  e.Attributes= attrs
  e.Path= e.Path[:strings.LastIndexByte ( e.Path, '/' )+1] + name

  return nil

} // end WriteFileEntry


// Adreça dins del fitxer de dades del hash del bloc.
func hashAddress( block int64 ) int64 {
  return _SVOD_BLOCK_SIZE +
    (block/_SVOD_BLOCKS_PER_HASH)*(_SVOD_BLOCKS_PER_HASH+1)*_SVOD_BLOCK_SIZE +
    (block%_SVOD_BLOCKS_PER_HASH)*sha1.Size
} // end hashAddress


// Torna a calcular el hash de nivell 0 d'un bloc de dades. Un bloc
// retallat al final del fitxer es completa amb zeros.
func (self *SVOD) rehashBlock(

  w     utils.FileWriterSource,
  path  string,
  block int64,

) error {

  f,err:= w.OpenFile ( path )
  if err != nil { return err }
  buf:= make ( []byte, _SVOD_BLOCK_SIZE )
  _,err= f.ReadAt ( buf, sectorAddress ( block*2 ) )
  f.Close ()
  if err != nil && !errors.Is ( err, io.EOF ) { return err }
  sum:= sha1.Sum ( buf )

  return w.WriteFileAt ( path, sum[:], hashAddress ( block ) )

} // end rehashBlock
