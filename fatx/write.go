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
 *  write.go - Operacions que modifiquen el volum.
 *
 *  Ordre de les escriptures: primer les dades, després la FAT i per
 *  últim l'entrada de directori. En esborrar es marca primer
 *  l'entrada i després s'allibera la cadena.
 *
 */

package fatx

import (
  "context"
  "errors"
  "fmt"
  "io"
  "time"

  "github.com/adriagipas/xcontent/utils"
)


/************/
/* NEW FILE */
/************/

// Prepara la creació de name dins de dir. Torna el directori pare.
func (self *Volume) prepareCreate( path string ) (DirEntry,string,error) {

  dir,name := utils.SplitDirName ( path )
  if err := checkName ( name ); err != nil { return DirEntry{},"",err }
  parent,err := self.lookupDir ( dir )
  if err != nil { return DirEntry{},"",err }
  _,ok,err := self.findIn ( parent.FirstCluster, name )
  if err != nil { return DirEntry{},"",err }
  if ok {
    return DirEntry{},"",fmt.Errorf ( "%w: '%s'", ErrNameConflict, path )
  }

  return parent,name,nil

} // end prepareCreate


// Escriu l'entrada en el directori pare. Si falla allibera clusters.
func (self *Volume) commitEntry( parent DirEntry, e *DirEntry,
  clusters []uint32 ) error {

  c,i,err := self.freeSlot ( parent.FirstCluster )
  if err == nil {
    e.cluster,e.index= c,i
    err= self.writeDirent ( e )
  }
  if err != nil {
    if rerr := self.releaseChain ( clusters ); rerr != nil {
      self.logger.Error ( "unable to release clusters", "error", rerr )
    }
    return err
  }

  return nil

} // end commitEntry


// Crea un fitxer nou amb el contingut de r. L'entrada sols es fa
// visible quan totes les dades i la FAT ja estan escrites. Es
// comprova ctx entre clusters.
func (self *Volume) WriteNewFile(

  ctx  context.Context,
  path string,
  r    io.Reader,

) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  parent,name,err := self.prepareCreate ( path )
  if err != nil { return err }

  // Dades
  clusters := make ( []uint32, 0, 16 )
  fail := func(err error) error {
    self.fat.release ( clusters )
    if rerr := self.flushFAT (); rerr != nil {
      self.logger.Error ( "unable to release clusters", "error", rerr )
    }
    return err
  }
  cs := self.geo.cluster_size
  buf := make ( []byte, cs )
  var size int64
  for {
    if err := ctx.Err (); err != nil { return fail ( err ) }
    n,rerr := io.ReadFull ( r, buf )
    if n > 0 {
      if size + int64(n) > 0xFFFFFFFF {
        return fail ( fmt.Errorf ( "%w: '%s'", ErrFileTooLarge, path ) )
      }
      c,err := self.fat.alloc ()
      if err != nil {
        return fail ( fmt.Errorf ( "%w: while writing '%s'", err, path ) )
      }
      if len(clusters) > 0 {
        self.fat.set ( clusters[len(clusters)-1], c )
      }
      clusters= append ( clusters, c )
      if err := self.writeAt ( buf[:n], self.clusterOffset ( c ) ); err != nil {
        return fail ( err )
      }
      size+= int64(n)
    }
    if rerr == io.EOF || rerr == io.ErrUnexpectedEOF { break }
    if rerr != nil { return fail ( rerr ) }
  }
  if err := self.flushFAT (); err != nil { return fail ( err ) }

  // Entrada
  now := time.Now ()
  e := DirEntry{
    Name: name,
    Size: uint32(size),
    Created: now,
    Modified: now,
    Accessed: now,
  }
  if len(clusters) > 0 { e.FirstCluster= clusters[0] }
  if err := self.commitEntry ( parent, &e, clusters ); err != nil {
    return err
  }
  self.logger.Debug ( "file written", "path", path, "size", size,
    "clusters", len(clusters) )

  return nil

} // end WriteNewFile


/*********/
/* MKDIR */
/*********/

func (self *Volume) mkdir( path string ) (DirEntry,error) {

  parent,name,err := self.prepareCreate ( path )
  if err != nil { return DirEntry{},err }

  // Cluster buit
  c,err := self.fat.alloc ()
  if err != nil {
    return DirEntry{},fmt.Errorf ( "%w: while creating '%s'", err, path )
  }
  fail := func(err error) (DirEntry,error) {
    if rerr := self.releaseChain ( []uint32{c} ); rerr != nil {
      self.logger.Error ( "unable to release clusters", "error", rerr )
    }
    return DirEntry{},err
  }
  buf := make ( []byte, self.geo.cluster_size )
  fill ( buf, 0xFF )
  if err := self.writeAt ( buf, self.clusterOffset ( c ) ); err != nil {
    return fail ( err )
  }
  if err := self.flushFAT (); err != nil { return fail ( err ) }

  // Entrada
  now := time.Now ()
  e := DirEntry{
    Name: name,
    Attributes: ATTR_DIRECTORY,
    FirstCluster: c,
    Created: now,
    Modified: now,
    Accessed: now,
  }
  if err := self.commitEntry ( parent, &e, []uint32{c} ); err != nil {
    return DirEntry{},err
  }

  return e,nil

} // end mkdir


func (self *Volume) Mkdir( path string ) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  _,err := self.mkdir ( path )

  return err

} // end Mkdir


// Crea tots els directoris que falten. Si ja existeix no fa res.
func (self *Volume) MkdirAll( path string ) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  parts,_ := utils.SplitPath ( path )
  cur := self.rootEntry ()
  for i,name := range parts {
    e,ok,err := self.findIn ( cur.FirstCluster, name )
    if err != nil { return err }
    if !ok {
      e,err= self.mkdir ( utils.JoinPath ( parts[:i+1]... ) )
      if err != nil { return err }
    } else if !e.IsDir () {
      return fmt.Errorf ( "%w: '%s'", ErrNotDir,
        utils.JoinPath ( parts[:i+1]... ) )
    }
    cur= e
  }

  return nil

} // end MkdirAll


/**********/
/* DELETE */
/**********/

func (self *Volume) deleteEntry( e DirEntry ) error {

  // Primer l'entrada
  off := self.direntOffset ( e.cluster, e.index )
  if err := self.writeAt ( []byte{_DIRENT_DELETED}, off ); err != nil {
    return err
  }

  // Després la cadena
  clusters,err := self.fat.chain ( e.FirstCluster )
  if err != nil {
    self.logger.Warn ( "entry deleted but its cluster chain is corrupted",
      "name", e.Name, "error", err )
    return nil
  }

  return self.releaseChain ( clusters )

} // end deleteEntry


func (self *Volume) isEmptyDir( e DirEntry ) (bool,error) {
  it,err := self.newDirIter ( e.FirstCluster )
  if err != nil { return false,err }
  return it.end,nil
} // end isEmptyDir


// Esborra un fitxer o un directori buit. Si no existeix torna
// ErrNotFound i no modifica res.
func (self *Volume) DeleteEntry( path string ) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  e,err := self.lookup ( path )
  if err != nil { return err }
  if e.cluster == 0 {
    return fmt.Errorf ( "%w: the root directory cannot be deleted",
      ErrInvalidName )
  }
  if e.IsDir () {
    empty,err := self.isEmptyDir ( e )
    if err != nil { return err }
    if !empty {
      return fmt.Errorf ( "%w: '%s'", ErrNotEmpty, path )
    }
  }

  return self.deleteEntry ( e )

} // end DeleteEntry


func (self *Volume) removeAll( e DirEntry ) error {

  if e.IsDir () {
    it,err := self.newDirIter ( e.FirstCluster )
    if err != nil { return err }
    children := make ( []DirEntry, 0, 8 )
    for ; !it.end; {
      children= append ( children, it.cur )
      if err := it.next (); err != nil { return err }
    }
    for _,c := range children {
      if err := self.removeAll ( c ); err != nil { return err }
    }
  }

  return self.deleteEntry ( e )

} // end removeAll


// Esborra recursivament.
func (self *Volume) RemoveAll( path string ) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  e,err := self.lookup ( path )
  if err != nil { return err }
  if e.cluster == 0 {
    return errors.New ( "fatx: the root directory cannot be deleted" )
  }

  return self.removeAll ( e )

} // end RemoveAll


/**********/
/* RENAME */
/**********/

// Canvia el nom d'una entrada dins del mateix directori.
func (self *Volume) RenameEntry( path string, new_name string ) error {

  if err := checkName ( new_name ); err != nil { return err }
  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  e,err := self.lookup ( path )
  if err != nil { return err }
  if e.cluster == 0 {
    return fmt.Errorf ( "%w: the root directory cannot be renamed",
      ErrInvalidName )
  }
  dir,_ := utils.SplitDirName ( path )
  parent,err := self.lookupDir ( dir )
  if err != nil { return err }
  other,ok,err := self.findIn ( parent.FirstCluster, new_name )
  if err != nil { return err }
  if ok && (other.cluster != e.cluster || other.index != e.index) {
    return fmt.Errorf ( "%w: '%s'", ErrNameConflict, new_name )
  }
  e.Name= new_name
  e.Modified= time.Now ()

  return self.writeDirent ( &e )

} // end RenameEntry


/************/
/* MODIFICA */
/************/

// Canvia els atributs i les dates d'una entrada. El bit de directori
// no es pot canviar i una data zero deixa l'anterior.
func (self *Volume) SetEntryInfo(

  path     string,
  attrs    uint8,
  created  time.Time,
  modified time.Time,
  accessed time.Time,

) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  e,err := self.lookup ( path )
  if err != nil { return err }
  if e.cluster == 0 {
    return fmt.Errorf ( "%w: the root directory has no entry",
      ErrInvalidName )
  }
  e.Attributes= (attrs&^ATTR_DIRECTORY) | (e.Attributes&ATTR_DIRECTORY)
  if !created.IsZero () { e.Created= created }
  if !modified.IsZero () { e.Modified= modified }
  if !accessed.IsZero () { e.Accessed= accessed }

  return self.writeDirent ( &e )

} // end SetEntryInfo


// Sobreescriu bytes d'un fitxer existent. No canvia la grandària ni
// la cadena de clusters.
func (self *Volume) WriteFileAt( path string, buf []byte, off int64 ) error {

  self.mu.Lock ()
  defer self.mu.Unlock ()
  if err := self.checkWritable (); err != nil { return err }
  e,err := self.lookup ( path )
  if err != nil { return err }
  if e.IsDir () {
    return fmt.Errorf ( "%w: '%s'", ErrIsDir, path )
  }
  if off < 0 || off+int64(len(buf)) > int64(e.Size) {
    return fmt.Errorf ( "%w: writing %d bytes at %d in '%s' (%d bytes)",
      utils.ErrOutOfBounds, len(buf), off, path, e.Size )
  }
  clusters,err := self.fat.chain ( e.FirstCluster )
  if err != nil { return err }
  cs := self.geo.cluster_size
  for len(buf) > 0 {
    ind := off/cs
    if ind >= int64(len(clusters)) {
      return fmt.Errorf ( "cluster chain of '%s' is shorter than its size",
        path )
    }
    in := off%cs
    n := cs-in
    if n > int64(len(buf)) { n= int64(len(buf)) }
    if err := self.writeAt ( buf[:n],
      self.clusterOffset ( clusters[ind] ) + in ); err != nil {
      return err
    }
    buf= buf[n:]
    off+= n
  }

  return nil

} // end WriteFileAt
