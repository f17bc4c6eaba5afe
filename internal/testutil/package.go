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
 *  package.go - Construcció de paquets XContent per a les proves.
 *
 *  Els paquets es generen en memòria amb els hashes correctes. La
 *  capçalera sempre ocupa 0x971A bytes (base 0xA000).
 *
 */

package testutil

import (
  "bytes"
  "crypto/sha1"
  "encoding/binary"
  "image"
  "image/color"
  "image/png"
  "strings"

  "golang.org/x/text/encoding/unicode"
)


/*************/
/* CONSTANTS */
/*************/

const (
  HeaderSize = 0x971A
  BaseOffset = 0xA000

  _META          = 0x22C
  _BLOCK_SIZE    = 0x1000
  _SECTOR_SIZE   = 0x800
  _SECTORS_FILE  = 0x14388
  _BLOCKS_HASH   = 0xCC
)


/**********/
/* HEADER */
/**********/

// Camps de la capçalera que interessen a les proves.
type HeaderOptions struct {

  Magic           string // "CON ", "LIVE" o "PIRS". Per defecte "CON "
  MetadataVersion uint32 // Per defecte 2
  ContentType     uint32
  TitleID         uint32
  ProfileID       [8]byte
  DisplayName     string
  Description     string
  Publisher       string
  TitleName       string
  Thumbnail       []byte
  TitleThumbnail  []byte

}


// Fitxer d'un paquet. Els directoris intermedis es creen sols.
type File struct {
  Path string
  Data []byte
}


func encodeUTF16( s string ) []byte {
  enc:= unicode.UTF16(unicode.BigEndian,unicode.IgnoreBOM).NewEncoder ()
  ret,err:= enc.Bytes ( []byte(s) )
  if err != nil { panic ( err ) }
  return ret
} // end encodeUTF16


func putI24LE( buf []byte, v int32 ) {
  buf[0]= byte(v)
  buf[1]= byte(v>>8)
  buf[2]= byte(v>>16)
} // end putI24LE


func putI24BE( buf []byte, v int32 ) {
  buf[0]= byte(v>>16)
  buf[1]= byte(v>>8)
  buf[2]= byte(v)
} // end putI24BE


// Escriu la capçalera comuna. El descriptor del volum l'ha d'escriure
// qui crida, abans de signHeader.
func writeHeader( buf []byte, h *HeaderOptions, svod bool, nfiles uint32 ) {

  magic:= h.Magic
  if magic == "" { magic= "CON " }
  copy ( buf, magic )
  version:= h.MetadataVersion
  if version == 0 { version= 2 }
  if magic == "CON " {
    buf[0x1f]= 2 // Retail
    copy ( buf[0x20:], "01-01-25" )
  }

  m:= buf[_META:]
  be:= binary.BigEndian
  be.PutUint32 ( m[0x114:], HeaderSize )
  be.PutUint32 ( m[0x118:], h.ContentType )
  be.PutUint32 ( m[0x11c:], version )
  be.PutUint32 ( m[0x134:], h.TitleID )
  m[0x138]= 2
  copy ( m[0x145:], h.ProfileID[:] )
  m[0x14d]= 0x24
  if svod {
    be.PutUint32 ( m[0x171:], nfiles )
    be.PutUint32 ( m[0x17d:], 1 )
  }
  copy ( m[0x1e5:0x1e5+0x100], encodeUTF16 ( h.DisplayName ) )
  copy ( m[0xae5:0xae5+0x100], encodeUTF16 ( h.Description ) )
  copy ( m[0x13e5:0x13e5+0x80], encodeUTF16 ( h.Publisher ) )
  copy ( m[0x1465:0x1465+0x80], encodeUTF16 ( h.TitleName ) )
  be.PutUint32 ( m[0x14e6:], uint32(len(h.Thumbnail)) )
  be.PutUint32 ( m[0x14ea:], uint32(len(h.TitleThumbnail)) )
  copy ( m[0x14ee:], h.Thumbnail )
  copy ( m[0x54ee:], h.TitleThumbnail )

} // end writeHeader


// Calcula el hash de la capçalera. Ha de ser l'última escriptura en
// [0x344,0xA000).
func signHeader( buf []byte ) {
  sum:= sha1.Sum ( buf[0x344:BaseOffset] )
  copy ( buf[_META+0x100:], sum[:] )
} // end signHeader


/********/
/* TREE */
/********/

type _Node struct {
  name     string
  data     []byte
  dir      bool
  children []*_Node
  index    int
  parent   int
}


func (self *_Node) child( name string, dir bool ) *_Node {
  for _,c:= range self.children {
    if c.name == name { return c }
  }
  ret:= &_Node{name: name, dir: dir}
  self.children= append ( self.children, ret )
  return ret
} // end child


func buildTree( files []File ) *_Node {

  root:= &_Node{dir: true, index: -1, parent: -1}
  for _,f:= range files {
    parts:= strings.Split ( strings.Trim ( f.Path, "/" ), "/" )
    cur:= root
    for i,p:= range parts {
      if i == len(parts)-1 {
        cur.child ( p, false ).data= f.Data
      } else {
        cur= cur.child ( p, true )
      }
    }
  }

  return root

} // end buildTree


// Preordre sense l'arrel.
func (self *_Node) flatten( out []*_Node ) []*_Node {
  for _,c:= range self.children {
    out= append ( out, c )
    if c.dir { out= c.flatten ( out ) }
  }
  return out
} // end flatten


/********/
/* STFS */
/********/

type STFSOptions struct {

  HeaderOptions

  // Dues còpies de cada taula hash. Amb SecondCopy la còpia activa
  // és la segona.
  Male       bool
  SecondCopy bool

  // Els blocs de cada fitxer s'encadenen en ordre invers.
  Fragmented bool

}


// Construeix un paquet STFS amb menys de 170 blocs.
func BuildSTFS( opts STFSOptions, files []File ) []byte {

  blocks_per_hash:= 1
  if opts.Male { blocks_per_hash= 2 }

  // Taula de fitxers
  root:= buildTree ( files )
  nodes:= root.flatten ( nil )
  for i,n:= range nodes { n.index= i }
  var set_parent func(n *_Node)
  set_parent= func(n *_Node) {
    for _,c:= range n.children {
      c.parent= n.index
      if c.dir { set_parent ( c ) }
    }
  }
  set_parent ( root )
  ft_blocks:= (len(nodes)*0x40 + _BLOCK_SIZE - 1)/_BLOCK_SIZE
  if ft_blocks == 0 { ft_blocks= 1 }

  // Reparteix blocs
  type _Alloc struct {
    start  int32
    count  int32
    chain  []int32
  }
  next:= int32(ft_blocks)
  allocs:= make ( map[*_Node]*_Alloc )
  for _,n:= range nodes {
    if n.dir { continue }
    count:= int32((len(n.data) + _BLOCK_SIZE - 1)/_BLOCK_SIZE)
    a:= &_Alloc{count: count}
    for i:= int32(0); i < count; i++ {
      if opts.Fragmented {
        a.chain= append ( a.chain, next+count-1-i )
      } else {
        a.chain= append ( a.chain, next+i )
      }
    }
    if count > 0 { a.start= a.chain[0] }
    next+= count
    allocs[n]= a
  }
  nblocks:= next
  if nblocks > 170 { panic ( "testutil: too many STFS blocks" ) }

  // Blocs de dades
  data:= make ( [][]byte, nblocks )
  for i:= range data { data[i]= make ( []byte, _BLOCK_SIZE ) }
  next_of:= make ( []int32, nblocks )
  for i:= range next_of { next_of[i]= 0xFFFFFF }
  for b:= int32(0); b < int32(ft_blocks)-1; b++ { next_of[b]= b+1 }
  ft:= make ( []byte, ft_blocks*_BLOCK_SIZE )
  for i,n:= range nodes {
    e:= ft[i*0x40:(i+1)*0x40]
    copy ( e, n.name )
    flags:= byte(len(n.name))
    if n.dir {
      flags|= 0x80
    } else {
      a:= allocs[n]
      if !opts.Fragmented { flags|= 0x40 }
      putI24LE ( e[0x29:], a.count )
      putI24LE ( e[0x2c:], a.count )
      putI24LE ( e[0x2f:], a.start )
      binary.BigEndian.PutUint32 ( e[0x34:], uint32(len(n.data)) )
      for j,b:= range a.chain {
        copy ( data[b], n.data[j*_BLOCK_SIZE:] )
        if j+1 < len(a.chain) { next_of[b]= a.chain[j+1] }
      }
    }
    e[0x28]= flags
    binary.BigEndian.PutUint16 ( e[0x32:], uint16(int16(n.parent)) )
    binary.BigEndian.PutUint32 ( e[0x38:], 0x5A210000 )
    binary.BigEndian.PutUint32 ( e[0x3c:], 0x5A210000 )
  }
  for b:= 0; b < ft_blocks; b++ {
    copy ( data[b], ft[b*_BLOCK_SIZE:] )
  }

  // Taula hash
  table:= make ( []byte, _BLOCK_SIZE )
  for b:= int32(0); b < nblocks; b++ {
    h:= table[b*0x18:]
    sum:= sha1.Sum ( data[b] )
    copy ( h, sum[:] )
    h[0x14]= 0x80
    putI24BE ( h[0x15:], next_of[b] )
  }

  // Imatge
  total:= BaseOffset + (int(nblocks)+blocks_per_hash)*_BLOCK_SIZE
  ret:= make ( []byte, total )
  table_off:= BaseOffset
  if opts.Male && opts.SecondCopy { table_off+= _BLOCK_SIZE }
  copy ( ret[table_off:], table )
  for b:= 0; b < int(nblocks); b++ {
    off:= BaseOffset + (b+blocks_per_hash)*_BLOCK_SIZE
    copy ( ret[off:], data[b] )
  }

  // Capçalera
  writeHeader ( ret, &opts.HeaderOptions, false, 0 )
  vd:= ret[_META+0x14d:]
  sep:= byte(0)
  if !opts.Male { sep|= 1 }
  if opts.Male && opts.SecondCopy { sep|= 2 }
  vd[2]= sep
  binary.LittleEndian.PutUint16 ( vd[3:], uint16(ft_blocks) )
  putI24LE ( vd[5:], 0 )
  top:= sha1.Sum ( table )
  copy ( vd[8:], top[:] )
  binary.BigEndian.PutUint32 ( vd[0x1c:], uint32(nblocks) )
  signHeader ( ret )

  return ret

} // end BuildSTFS


/********/
/* SVOD */
/********/

type SVODOptions struct {

  HeaderOptions

  // Descriptor GDFX en el sector 0 en compte del 0x20.
  Enhanced bool

}


type SVOD struct {
  Header    []byte
  DataFiles [][]byte
}


func align4( n int ) int { return (n+3)&^3 }


// Grandària de la taula d'un directori. Les entrades no poden creuar
// sectors.
func dirTableSize( n *_Node ) int {
  pos:= 0
  for _,c:= range n.children {
    l:= align4 ( 14 + len(c.name) )
    if pos%_SECTOR_SIZE + l > _SECTOR_SIZE {
      pos= (pos/_SECTOR_SIZE + 1)*_SECTOR_SIZE
    }
    pos+= l
  }
  return pos
} // end dirTableSize


func nsectors( size int ) int {
  return (size + _SECTOR_SIZE - 1)/_SECTOR_SIZE
}


// Adreça d'un sector (relatiu) dins del seu fitxer de dades.
func svodAddress( sector int ) int {
  s:= sector%_SECTORS_FILE
  return _BLOCK_SIZE + ((s/2)/_BLOCKS_HASH + 1)*_BLOCK_SIZE + s*_SECTOR_SIZE
} // end svodAddress


// Construeix un paquet SVOD amb un sol fitxer de dades.
func BuildSVOD( opts SVODOptions, files []File ) *SVOD {

  root:= buildTree ( files )
  desc_sector:= 0x20
  if opts.Enhanced { desc_sector= 0 }

  // Sectors
  type _Place struct {
    sector int
    size   int
  }
  places:= make ( map[*_Node]_Place )
  next:= desc_sector + 1
  var place func(n *_Node)
  place= func(n *_Node) {
    size:= dirTableSize ( n )
    places[n]= _Place{next,size}
    next+= nsectors ( size )
    for _,c:= range n.children {
      if c.dir {
        place ( c )
      } else {
        places[c]= _Place{next,len(c.data)}
        next+= nsectors ( len(c.data) )
      }
    }
  }
  place ( root )
  if next >= _SECTORS_FILE { panic ( "testutil: SVOD image too large" ) }

  // Imatge per sectors
  img:= make ( []byte, next*_SECTOR_SIZE )
  desc:= img[desc_sector*_SECTOR_SIZE:]
  copy ( desc, "MICROSOFT*XBOX*MEDIA" )
  binary.LittleEndian.PutUint32 ( desc[0x14:], uint32(places[root].sector) )
  binary.LittleEndian.PutUint32 ( desc[0x18:], uint32(places[root].size) )
  var write func(n *_Node)
  write= func(n *_Node) {
    p:= places[n]
    table:= img[p.sector*_SECTOR_SIZE:]
    for i:= 0; i < nsectors ( p.size )*_SECTOR_SIZE; i++ { table[i]= 0xFF }
    pos:= 0
    for _,c:= range n.children {
      l:= align4 ( 14 + len(c.name) )
      if pos%_SECTOR_SIZE + l > _SECTOR_SIZE {
        pos= (pos/_SECTOR_SIZE + 1)*_SECTOR_SIZE
      }
      cp:= places[c]
      e:= table[pos:pos+l]
      for i:= range e { e[i]= 0 }
      binary.LittleEndian.PutUint32 ( e[4:], uint32(cp.sector) )
      binary.LittleEndian.PutUint32 ( e[8:], uint32(cp.size) )
      if c.dir {
        e[12]= 0x10
      } else {
        e[12]= 0x80
        copy ( img[cp.sector*_SECTOR_SIZE:], c.data )
      }
      e[13]= byte(len(c.name))
      copy ( e[14:], c.name )
      pos+= l
    }
    for _,c:= range n.children {
      if c.dir { write ( c ) }
    }
  }
  write ( root )

  // Fitxer de dades
  data:= make ( []byte, svodAddress ( next-1 ) + _SECTOR_SIZE )
  for s:= 0; s < next; s++ {
    copy ( data[svodAddress ( s ):svodAddress ( s )+_SECTOR_SIZE],
      img[s*_SECTOR_SIZE:(s+1)*_SECTOR_SIZE] )
  }

  // Capçalera
  header:= make ( []byte, BaseOffset )
  writeHeader ( header, &opts.HeaderOptions, true, 1 )
  vd:= header[_META+0x14d:]
  if opts.Enhanced { vd[0x18]= 0x40 }
  putI24LE ( vd[0x19:], int32((next+1)/2) )
  signHeader ( header )

  return &SVOD{Header: header, DataFiles: [][]byte{data}}

} // end BuildSVOD


/*******/
/* PNG */
/*******/

// PNG vàlid de w x h.
func PNG( w, h int ) []byte {

  img:= image.NewRGBA ( image.Rect ( 0, 0, w, h ) )
  for y:= 0; y < h; y++ {
    for x:= 0; x < w; x++ {
      img.Set ( x, y, color.RGBA{uint8(x*16),uint8(y*16),0x80,0xFF} )
    }
  }
  var buf bytes.Buffer
  if err:= png.Encode ( &buf, img ); err != nil { panic ( err ) }

  return buf.Bytes ()

} // end PNG

