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
 *  build.go - Construcció del catàleg a partir d'un volum.
 *
 *  /Content/<propietari>/<títol>/<tipus>/<paquet>
 *
 */

package catalog

import (
  "context"
  "errors"
  "strings"

  "golang.org/x/text/encoding/unicode"

  "github.com/adriagipas/xcontent/device"
  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
  "github.com/adriagipas/xcontent/x360"
)


const SHARED_OWNER = "0000000000000000"

const _NAME_FILE = "/name.txt"


type Options struct {

  ContentDir string // Per defecte /Content
  Verify     bool   // Comprova els hashes de les capçaleres
  Writable   bool   // Obri els dispositius per escriptura
  InjectDir  string
  BufferSize int
  Logger     utils.Logger

}


func (self *Options) contentDir() string {
  if self.ContentDir == "" { return "/Content" }
  return self.ContentDir
}


// Un volum obert preparat per construir el seu catàleg.
type Volume struct {
  Vol  *fatx.Volume
  Kind device.Kind
  Path string
}


/***********/
/* BUILDER */
/***********/

type _Builder struct {

  vol    *fatx.Volume
  opts   *Options
  logger utils.Logger
  dev    *Device

}


func (self *_Builder) profile( owner string ) *Profile {

  for _,p := range self.dev.Profiles {
    if strings.EqualFold ( p.ID, owner ) { return p }
  }
  ret := &Profile{ID: strings.ToUpper ( owner )}
  self.dev.Profiles= append ( self.dev.Profiles, ret )

  return ret

} // end profile


// Llig sols els subdirectoris de path.
func (self *_Builder) subdirs( path string ) ([]fatx.DirEntry,error) {

  entries,err := self.vol.ReadDir ( path )
  if err != nil { return nil,err }
  ret := entries[:0]
  for _,e := range entries {
    if e.IsDir () { ret= append ( ret, e ) }
  }

  return ret,nil

} // end subdirs


func (self *_Builder) run( ctx context.Context ) error {

  root := self.opts.contentDir ()
  owners,err := self.subdirs ( root )
  if errors.Is ( err, fatx.ErrNotFound ) {
    self.logger.Debug ( "device without content directory", "path", root )
    return nil
  }
  if err != nil { return err }
  for _,owner := range owners {
    owner_path := utils.JoinPath ( root, owner.Name )
    titles,err := self.subdirs ( owner_path )
    if err != nil { return err }
    for _,title := range titles {
      if err := ctx.Err (); err != nil { return err }
      title_path := utils.JoinPath ( owner_path, title.Name )
      ctypes,err := self.subdirs ( title_path )
      if err != nil { return err }
      for _,ctype := range ctypes {
        if err := self.scanDir ( owner.Name,
          utils.JoinPath ( title_path, ctype.Name ) ); err != nil {
          return err
        }
      }
    }
  }

  return nil

} // end run


// Els subdirectoris (Data0000...) no són paquets.
func (self *_Builder) scanDir( owner, path string ) error {

  it,err := self.vol.OpenDir ( path )
  if err != nil { return err }
  for ; !it.End (); {
    e := it.Entry ()
    if !e.IsDir () {
      self.addPackage ( owner, utils.JoinPath ( path, e.Name ), e )
    }
    if err := it.Next (); err != nil { return err }
  }

  return nil

} // end scanDir


// Cada paquet va a un sol lloc: el perfil, una partida d'un títol o
// una categoria.
func (self *_Builder) addPackage( owner, path string, e fatx.DirEntry ) {

  pkg,err := x360.OpenPackage ( self.vol, path, x360.OpenOptions{
    Verify: self.opts.Verify,
    Logger: self.logger,
  })
  if err != nil {
    self.logger.Warn ( "skipping package", "path", path, "error", err )
    return
  }
  h := pkg.Header ()
  it := &Item{
    Handle: Handle{
      Header: h,
      Path: path,
      RawName: e.Name,
      Size: int64(e.Size),
    },
    Package: pkg,
  }
  if pkg.Kind == x360.FS_SVOD {
    it.AuxPaths= pkg.SVOD.DataFilePaths ()
  }

  // Perfils
  if owner != SHARED_OWNER {
    if !strings.EqualFold ( h.ProfileIDString (), owner ) {
      self.logger.Debug ( "profile ID does not match owner directory",
        "path", path, "profile_id", h.ProfileIDString () )
    }
    switch h.ContentType {
    case x360.CONTENT_TYPE_PROFILE:
      p := self.profile ( owner )
      if p.Path == "" {
        p.Handle= it.Handle
        return
      }
    case x360.CONTENT_TYPE_SAVED_GAME, x360.CONTENT_TYPE_XBOX_SAVED_GAME:
      self.profile ( owner ).title ( h.TitleID ).add ( it )
      return
    }
  }

  c := Classify ( h.ContentType, pkg.Kind )
  self.dev.buckets[c]= append ( self.dev.buckets[c], it )

} // end addPackage


/**********/
/* PUBLIC */
/**********/

// Nom guardat en /name.txt (UTF-16 amb BOM). Buit si no n'hi ha.
func ReadDeviceName( vol *fatx.Volume ) string {

  data,err := vol.ReadFile ( _NAME_FILE )
  if err != nil { return "" }
  dec := unicode.UTF16 ( unicode.BigEndian, unicode.UseBOM ).NewDecoder ()
  tmp,err := dec.Bytes ( data )
  if err != nil { return "" }

  return strings.TrimSpace ( strings.TrimRight ( string(tmp), "\x00" ) )

} // end ReadDeviceName


// Construeix el catàleg d'un volum llegint sols les capçaleres dels
// paquets. Els paquets que no es poden llegir s'ignoren.
func BuildDevice(

  ctx  context.Context,
  v    Volume,
  opts Options,

) (*Device,error) {

  logger := utils.OrNop ( opts.Logger )
  ret := &Device{
    Name: ReadDeviceName ( v.Vol ),
    Kind: v.Kind,
    Path: v.Path,
  }
  if ret.Name == "" { ret.Name= v.Kind.String () }
  b := _Builder{
    vol: v.Vol,
    opts: &opts,
    logger: logger,
    dev: ret,
  }
  if err := b.run ( ctx ); err != nil { return nil,err }
  logger.Debug ( "device catalog built", "device", ret.Name,
    "profiles", len(ret.Profiles) )

  return ret,nil

} // end BuildDevice


// Un dispositiu per volum, en el mateix ordre. Els volums que fallen
// s'ometen però Index continua sent la posició en vols.
func Build( ctx context.Context, vols []Volume, opts Options ) []*Device {

  logger := utils.OrNop ( opts.Logger )
  ret := make ( []*Device, 0, len(vols) )
  for i,v := range vols {
    dev,err := BuildDevice ( ctx, v, opts )
    if err != nil {
      if ctx.Err () != nil { break }
      logger.Warn ( "skipping device", "path", v.Path, "error", err )
      continue
    }
    dev.Index= i
    ret= append ( ret, dev )
  }

  return ret

} // end Build
