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
 *  table.go - File Allocation Table de FATX (entrades de 16 o 32
 *             bits, big endian).
 *
 */

package fatx

import (
  "encoding/binary"
  "fmt"
  "io"
  "sort"

  "github.com/adriagipas/xcontent/utils"
)


/*************/
/* CONSTANTS */
/*************/

// Valors de la taula normalitzats a 32 bits. Les taules de 16 bits
// s'estenen en llegir (0xFFFF -> 0xFFFFFFFF).
const (
  _FAT_FREE  = 0x00000000
  _FAT_BAD   = 0xFFFFFFF7
  _FAT_MEDIA = 0xFFFFFFF8
  _FAT_END   = 0xFFFFFFFF
)

const _FAT_PAGE = 0x1000


/*********/
/* TABLE */
/*********/

type _Table struct {

  data       []byte
  entry_size int
  nclusters  uint32          // Clusters de dades vàlids: 1..nclusters
  dirty      map[int64]bool  // Pàgines modificades pendents d'escriure
  free       uint32
  hint       uint32

}


func newTable( data []byte, entry_size int, nclusters uint32 ) *_Table {

  ret := _Table{
    data: data,
    entry_size: entry_size,
    nclusters: nclusters,
    dirty: make(map[int64]bool),
    hint: 1,
  }
  for i := uint32(1); i <= nclusters; i++ {
    if ret.get ( i ) == _FAT_FREE { ret.free++ }
  }

  return &ret

} // end newTable


func (self *_Table) get( ind uint32 ) uint32 {

  if self.entry_size == 2 {
    val := uint32(binary.BigEndian.Uint16 ( self.data[ind*2:] ))
    if val >= 0xFFF0 { val|= 0xFFFF0000 }
    return val
  }

  return binary.BigEndian.Uint32 ( self.data[ind*4:] )

} // end get


func (self *_Table) set( ind uint32, val uint32 ) {

  old := self.get ( ind )
  pos := int64(ind)*int64(self.entry_size)
  if self.entry_size == 2 {
    binary.BigEndian.PutUint16 ( self.data[pos:], uint16(val) )
  } else {
    binary.BigEndian.PutUint32 ( self.data[pos:], val )
  }
  self.dirty[pos/_FAT_PAGE]= true

  // Comptador de lliures
  if ind >= 1 && ind <= self.nclusters {
    if old == _FAT_FREE && val != _FAT_FREE {
      self.free--
    } else if old != _FAT_FREE && val == _FAT_FREE {
      self.free++
    }
  }

} // end set


func isChainEnd( val uint32 ) bool { return val >= _FAT_MEDIA }


// Reserva un cluster lliure i el marca com a final de cadena. Torna
// ErrNoSpace si no en queda cap.
func (self *_Table) alloc() (uint32,error) {

  if self.free == 0 { return 0,ErrNoSpace }
  for n,c := uint32(0),self.hint; n < self.nclusters; n++ {
    if c < 1 || c > self.nclusters { c= 1 }
    if self.get ( c ) == _FAT_FREE {
      self.set ( c, _FAT_END )
      self.hint= c+1
      return c,nil
    }
    c++
  }

  return 0,ErrNoSpace

} // end alloc


// Torna la cadena que comença en first. Detecta cicles i valors fora
// de rang.
func (self *_Table) chain( first uint32 ) ([]uint32,error) {

  if first == 0 { return []uint32{},nil }
  ret := make ( []uint32, 0, 4 )
  for c := first; !isChainEnd ( c ); c= self.get ( c ) {
    if c < 1 || c > self.nclusters {
      return nil,fmt.Errorf ( "corrupted cluster chain starting at %d: "+
        "invalid cluster %08X", first, c )
    }
    if uint32(len(ret)) >= self.nclusters {
      return nil,fmt.Errorf ( "corrupted cluster chain starting at %d: "+
        "loop detected", first )
    }
    ret= append ( ret, c )
  }

  return ret,nil

} // end chain


func (self *_Table) release( clusters []uint32 ) {
  for _,c := range clusters {
    self.set ( c, _FAT_FREE )
    if c < self.hint { self.hint= c }
  }
} // end release


// Escriu les pàgines modificades. offset és la posició de la taula
// dins del volum.
func (self *_Table) flush( w io.WriterAt, offset, length int64 ) error {

  if len(self.dirty) == 0 { return nil }
  pages := make ( []int64, 0, len(self.dirty) )
  for p := range self.dirty {
    pages= append ( pages, p )
  }
  sort.Slice ( pages, func(i,j int) bool { return pages[i] < pages[j] } )
  for _,p := range pages {
    beg := p*_FAT_PAGE
    end := beg + _FAT_PAGE
    if end > int64(len(self.data)) { end= int64(len(self.data)) }
    if err := utils.WriteBytes ( w, 0, length,
      self.data[beg:end], offset+beg ); err != nil {
      return fmt.Errorf ( "error while writing FAT page %d: %w", p, err )
    }
    delete ( self.dirty, p )
  }

  return nil

} // end flush
