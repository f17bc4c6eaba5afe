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
 *  stfs_file_manager.go - Accés als blocs d'un volum STFS.
 */

package x360

import (
  "crypto/sha1"
  "errors"
  "fmt"
  "io"
)


/****************/
/* FILE MANAGER */
/****************/

const _STFS_BLOCK_SIZE = 0x1000
const _STFS_HASH_ENTRY_SIZE = 0x18
const _STFS_HASHES_PER_TABLE = 170

type _StfsHashEntry struct {
  Hash   [0x14]byte
  Status uint8
  Next   int32
}


type _StfsFileManager struct {

  f                 io.ReaderAt
  size              int64
  blocks_per_hash   int32
  base_offset       int64
  read_only_format  bool
  root_active_index bool
  top_level         int
  verify            bool

}


func newStfsFileManager(

  f      io.ReaderAt,
  size   int64,
  header *Header,
  verify bool,

) *_StfsFileManager {

  ret:= _StfsFileManager{
    f: f,
    size: size,
    verify: verify,
  }

  // Bits del volume descriptor
  sep:= header.Stfs.BlockSeparation
  ret.read_only_format= (sep&0x1)!=0
  ret.root_active_index= (sep&0x2)!=0

  // Si és read_only_format les taules hash no estan repetides
  if ret.read_only_format {
    ret.blocks_per_hash= 1
  } else {
    ret.blocks_per_hash= 2
  }

  // El base offset és el HeaderSize arrodonit al que ocupa un bloc
  ret.base_offset= header.BaseOffset ()

  // Nivell de la taula superior
  allocated:= header.Stfs.TotalAllocatedBlockCount
  if allocated <= _STFS_HASHES_PER_TABLE {
    ret.top_level= 0
  } else if allocated <= _STFS_HASHES_PER_TABLE*_STFS_HASHES_PER_TABLE {
    ret.top_level= 1
  } else {
    ret.top_level= 2
  }

  return &ret

} // end newStfsFileManager


func (self *_StfsFileManager) BlockToOffset( block int32 ) int64 {

  // Hi ha 3 nivells de taules hash. El primer és de blocks, el segon
  // de taules hash, i el tercer de taules hash del nivell
  // anterior. Cada hash ocupa 1 o 2 blocks (depen de metadades) i va
  // al principi. Totes les hash fan referència a 170 valors.
  //
  // El tema és que els blocks de Hash estan intercalats amb els de
  // dades i no afecta a l'índex dels blocks.

  // Reajusta block
  var extra_blocks int32
  extra_blocks= (block/170 + 1)*self.blocks_per_hash
  if block >= 170 {
    extra_blocks+= (block/(170*170) + 1)*self.blocks_per_hash
    if block >= 170*170 {
      extra_blocks+= (block/(170*170*170) + 1)*self.blocks_per_hash
    }
  }
  block+= extra_blocks

  // Calcula offset
  ret:= self.base_offset + int64(block)<<12

  return ret

} // end BlockToOffset


func (self *_StfsFileManager) BlockToHashBlock( block int32, level int ) int32 {

  // Level 0
  if level == 0 {

    // Primera hash
    if block < 170 { return 0 }

    // --> Posició pel nivell 0
    block_step:= 170 + self.blocks_per_hash // Distància entre blocks
    ret:= (block/170)*block_step
    // --> Extra pel nivell 1
    ret+= ((block/(170*170)) + 1)*self.blocks_per_hash

    if block < 170*170 {
      return ret
    } else {
      return ret + self.blocks_per_hash
    }

    // Level 1
  } else if level == 1 {

    // El primer block Level 1 està al final de la primera taula
    if block < 170*170 { return 170 + self.blocks_per_hash }

    // Posició
    block_step:= 170*170 + 171*self.blocks_per_hash
    ret:= (block/(170*170))*block_step

    return ret + self.blocks_per_hash

    // Level 2
  } else {
    return 170*170 + 171*self.blocks_per_hash
  }

} // end BlockToHashBlock


// Offset de la taula hash de nivell level que cobreix block. En els
// paquets amb dues còpies de cada taula, la còpia activa la indica
// el nivell superior (o el descriptor per a la taula superior).
func (self *_StfsFileManager) HashTableOffset(

  block int32,
  level int,

) (int64,error) {

  hash_block:= self.BlockToHashBlock ( block, level )
  ret:= self.base_offset + int64(hash_block)<<12
  if self.read_only_format { return ret,nil }

  // Taula superior
  if level >= self.top_level {
    if self.root_active_index { ret+= _STFS_BLOCK_SIZE }
    return ret,nil
  }

  // Entrada del nivell superior
  parent,err:= self.HashTableOffset ( block, level+1 )
  if err != nil { return -1,err }
  var index int32
  if level == 0 {
    index= (block/170)%170
  } else {
    index= (block/(170*170))%170
  }
  var status [1]byte
  pos:= parent + int64(index)*_STFS_HASH_ENTRY_SIZE + 0x14
  if _,err:= self.f.ReadAt ( status[:], pos ); err != nil {
    return -1,fmt.Errorf ( "error while reading hash table status for"+
      " block %d: %w", block, err )
  }
  if status[0]&0x40 != 0 { ret+= _STFS_BLOCK_SIZE }

  return ret,nil

} // end HashTableOffset


func (self *_StfsFileManager) HashEntry( block int32 ) (_StfsHashEntry,error) {

  var ret _StfsHashEntry
  off,err:= self.HashTableOffset ( block, 0 )
  if err != nil { return ret,err }

  // Llig entrada hash
  var buf [_STFS_HASH_ENTRY_SIZE]byte
  offset:= off + int64((block%170)*_STFS_HASH_ENTRY_SIZE)
  if nbytes,err:= self.f.ReadAt ( buf[:], offset ); nbytes != len(buf) {
    if err == nil { err= io.ErrUnexpectedEOF }
    return ret,fmt.Errorf ( "error while reading hash entry for block %d: %w",
      block, err )
  }
  copy ( ret.Hash[:], buf[:0x14] )
  ret.Status= buf[0x14]
  ret.Next= _i24be ( buf[0x15:] )

  return ret,nil

} // end HashEntry


// Llig un bloc de dades. Si la verificació està activada comprova el
// hash de nivell 0.
func (self *_StfsFileManager) ReadBlock( block int32, buf []byte ) error {

  if block < 0 || block >= 0xFFFFFF {
    return fmt.Errorf ( "invalid STFS block %d", block )
  }
  buf= buf[:_STFS_BLOCK_SIZE]
  offset:= self.BlockToOffset ( block )
  nbytes,err:= self.f.ReadAt ( buf, offset )
  if nbytes != len(buf) {
    // L'últim bloc pot estar retallat
    if nbytes > 0 && errors.Is ( err, io.EOF ) {
      for i:= nbytes; i < len(buf); i++ { buf[i]= 0 }
    } else {
      if err == nil { err= io.ErrUnexpectedEOF }
      return fmt.Errorf ( "error while reading block %d: %w", block, err )
    }
  }
  if self.verify {
    entry,err:= self.HashEntry ( block )
    if err != nil { return err }
    if sha1.Sum ( buf ) != entry.Hash {
      return fmt.Errorf ( "%w: block %d", ErrHashMismatch, block )
    }
  }

  return nil

} // end ReadBlock


func (self *_StfsFileManager) NextBlock( block int32 ) (int32,error) {
  entry,err:= self.HashEntry ( block )
  if err != nil { return -1,err }
  return entry.Next,nil
} // end NextBlock


/********/
/* FILE */
/********/

type _StfsFile struct {

  mng           *_StfsFileManager
  closer        io.Closer // Pot ser nil
  v             [_STFS_BLOCK_SIZE]byte
  pv            []byte // Punter al buffer
  remain        int64
  current_block int32
  block_count   int32
  consecutive   bool

}

func newStfsFile(

  mng         *_StfsFileManager,
  closer      io.Closer,
  block       int32,
  num_blocks  int32,
  consecutive bool,
  size        int64, // < 0 vol dir que no es sap (tots els blocs)

) (*_StfsFile,error) {

  // Cas especial, fitxer buit
  ret:= _StfsFile{
    mng: mng,
    closer: closer,
    current_block: block,
    block_count: num_blocks-1, // Els blocks que falten
    consecutive: consecutive,
  }
  if size == 0 || num_blocks == 0 {
    ret.block_count= 0
    return &ret,nil
  }

  // Comprovacions inicials
  if block < 0 {
    return nil,fmt.Errorf (
      "unable to open STFS File Reader starting in block %d",
      block )
  }
  if num_blocks < 0 {
    return nil,fmt.Errorf (
      "unable to open STFS File Reader with block_count %d",
      num_blocks )
  }

  // Inicialitza.
  if size < 0 {
    ret.remain= int64(num_blocks)*_STFS_BLOCK_SIZE
  } else {
    ret.remain= size
  }
  if err:= ret.loadCurrentBlock (); err != nil {
    return nil,err
  }

  return &ret,nil

} // end newStfsFile


// Carrega en memòria el current_block
func (self *_StfsFile) loadCurrentBlock() error {
  self.pv= self.v[:] // Apunta al principi
  return self.mng.ReadBlock ( self.current_block, self.pv )
} // end loadCurrentBlock


func (self *_StfsFile) loadNextBlock() error {

  // Comprovacions.
  if self.block_count == 0 {
    return errors.New (
      "error while loading next block: no more blocks remaining" )
  }

  // Obté el següent block
  self.block_count--
  if self.consecutive {
    self.current_block++
  } else {
    var err error
    self.current_block,err= self.mng.NextBlock ( self.current_block )
    if err != nil { return err }
  }

  // Carrega el block.
  return self.loadCurrentBlock ()

} // end loadNextBlock


func (self *_StfsFile) Read( buf []byte ) (int,error) {

  // Cas especial EOF
  if self.remain == 0 {
    return 0,io.EOF
  }

  // Llig
  ret:= 0
  for len(buf) > 0 && self.remain > 0 {

    // Si el buffer està buit avança al següent
    if len(self.pv) == 0 {
      if err:= self.loadNextBlock (); err != nil {
        return ret,err
      }
    }

    // Llig del buffer.
    n:= copy ( buf, self.pv )
    if int64(n) > self.remain { n= int(self.remain) }
    buf= buf[n:]
    self.pv= self.pv[n:]
    self.remain-= int64(n)
    ret+= n

  }

  return ret,nil

} // end _StfsFile.Read


func (self *_StfsFile) Close() error {

  if self.closer != nil {
    err:= self.closer.Close ()
    self.closer= nil
    return err
  }

  return nil

} // end _StfsFile.Close
