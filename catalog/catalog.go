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
 *  catalog.go - Arbre de continguts d'un dispositiu.
 *
 *  Dispositiu -> Perfil -> Títol -> Partida guardada
 *  Dispositiu -> Categoria -> Element
 *
 */

package catalog

import (
  "fmt"
  "slices"
  "strings"

  "github.com/adriagipas/xcontent/device"
  "github.com/adriagipas/xcontent/transfer"
  "github.com/adriagipas/xcontent/x360"
)


/**************/
/* CATEGORIES */
/**************/

type Category int

const (
  CAT_GAMES Category = iota
  CAT_DLC
  CAT_DEMOS
  CAT_VIDEOS
  CAT_THEMES
  CAT_GAMER_PICTURES
  CAT_AVATAR_ITEMS
  CAT_UPDATES
  CAT_SYSTEM_ITEMS

  NUM_CATEGORIES int = iota
)

var _CATEGORY_NAMES = [NUM_CATEGORIES]string{
  "Games",
  "DLC",
  "Demos",
  "Videos",
  "Themes",
  "Gamer Pictures",
  "Avatar Items",
  "Updates",
  "System Items",
}


func (self Category) String() string {
  if self < 0 || int(self) >= NUM_CATEGORIES {
    return fmt.Sprintf ( "Unknown (%d)", int(self) )
  }
  return _CATEGORY_NAMES[self]
} // end String


// Totes les categories en l'ordre de presentació.
func Categories() []Category {
  ret := make ( []Category, NUM_CATEGORIES )
  for i := range ret { ret[i]= Category(i) }
  return ret
} // end Categories


// Sols depén del tipus de contingut i del sistema de fitxers.
func Classify( ctype x360.ContentType, kind x360.FileSystem ) Category {

  switch ctype {
  case x360.CONTENT_TYPE_ARCADE_TITLE,
    x360.CONTENT_TYPE_COMMUNITY_GAME,
    x360.CONTENT_TYPE_GAME_ON_DEMAND,
    x360.CONTENT_TYPE_INSTALLED_GAME,
    x360.CONTENT_TYPE_XBOX360_TITLE,
    x360.CONTENT_TYPE_XBOX_TITLE,
    x360.CONTENT_TYPE_GAME_TITLE,
    x360.CONTENT_TYPE_XNA:
    return CAT_GAMES
  case x360.CONTENT_TYPE_MARKETPLACE_CONTENT,
    x360.CONTENT_TYPE_STORAGE_DOWNLOAD,
    x360.CONTENT_TYPE_XBOX_DOWNLOAD:
    return CAT_DLC
  case x360.CONTENT_TYPE_GAME_DEMO:
    return CAT_DEMOS
  case x360.CONTENT_TYPE_VIDEO,
    x360.CONTENT_TYPE_GAME_TRAILER,
    x360.CONTENT_TYPE_GAME_VIDEO,
    x360.CONTENT_TYPE_MOVIE,
    x360.CONTENT_TYPE_TV,
    x360.CONTENT_TYPE_MUSIC_VIDEO,
    x360.CONTENT_TYPE_PODCAST_VIDEO,
    x360.CONTENT_TYPE_VIRAL_VIDEO:
    return CAT_VIDEOS
  case x360.CONTENT_TYPE_THEME:
    return CAT_THEMES
  case x360.CONTENT_TYPE_GAMER_PICTURE:
    return CAT_GAMER_PICTURES
  case x360.CONTENT_TYPE_AVATAR_ITEM:
    return CAT_AVATAR_ITEMS
  case x360.CONTENT_TYPE_INSTALLER:
    return CAT_UPDATES
  }
  // Qualsevol altre SVOD és un joc instal·lat
  if kind == x360.FS_SVOD { return CAT_GAMES }

  return CAT_SYSTEM_ITEMS

} // end Classify


/**********/
/* HANDLE */
/**********/

// El que necessita la capa de presentació per a extraure, esborrar o
// reanomenar sense tornar a analitzar el paquet.
type Handle struct {

  Header   *x360.Header
  Path     string   // Camí en el dispositiu
  RawName  string   // Nom en el directori
  Size     int64
  AuxPaths []string // Fitxers de dades SVOD

}


// Tots els camins del dispositiu que pertanyen a l'element.
func (self *Handle) Paths() []string {
  return append ( []string{self.Path}, self.AuxPaths... )
}


func (self *Handle) transferItem() transfer.Item {
  return transfer.Item{Path: self.Path, AuxPaths: self.AuxPaths}
}


// Nom a mostrar. Si la capçalera no en té es mostra el nom en disc.
func (self *Handle) DisplayName() string {
  if self.Header != nil {
    if name := self.Header.Name (); name != "" { return name }
  }
  return self.RawName
} // end DisplayName


// El segon valor és false quan no hi ha miniatura o no és vàlida.
func (self *Handle) Thumbnail() ([]byte,bool) {
  if self.Header == nil { return nil,false }
  return self.Header.Thumbnail ()
} // end Thumbnail


/***********/
/* ELEMENT */
/***********/

type Item struct {
  Handle
  Package *x360.Package
}


// Ordena per nom a mostrar sense distingir majúscules. L'ordre de
// l'escaneig es manté entre noms iguals.
func SortItems( items []*Item ) {
  slices.SortStableFunc ( items, func(a, b *Item) int {
    return strings.Compare ( strings.ToLower ( a.DisplayName () ),
      strings.ToLower ( b.DisplayName () ) )
  })
} // end SortItems


/**********/
/* PERFIL */
/**********/

const UNKNOWN_PROFILE = "Unknown Profile"

type Profile struct {

  // Paquet del perfil. Path és buit si el dispositiu no en té.
  Handle

  ID     string // Directori propietari (16 xifres hexadecimals)
  Titles []*Title

}


func (self *Profile) DisplayName() string {
  if self.Header != nil {
    if name := self.Header.Name (); name != "" { return name }
  }
  return UNKNOWN_PROFILE
} // end DisplayName


func (self *Profile) title( id uint32 ) *Title {

  for _,t := range self.Titles {
    if t.ID == id { return t }
  }
  ret := &Title{ID: id}
  self.Titles= append ( self.Titles, ret )

  return ret

} // end title


/*********/
/* TÍTOL */
/*********/

type Title struct {

  ID    uint32
  Name  string
  Saves []*Item

  thumbnail []byte

}


func (self *Title) DisplayName() string {
  if self.Name != "" { return self.Name }
  return fmt.Sprintf ( "%08X", self.ID )
} // end DisplayName


func (self *Title) Thumbnail() ([]byte,bool) {
  return self.thumbnail,len(self.thumbnail) > 0
} // end Thumbnail


// Completa nom i miniatura amb la primera partida que en tinga.
func (self *Title) add( it *Item ) {

  self.Saves= append ( self.Saves, it )
  h := it.Header
  if self.Name == "" { self.Name= h.TitleName }
  if self.thumbnail == nil {
    if thumb,ok := h.TitleThumbnail (); ok { self.thumbnail= thumb }
  }

} // end add


/**************/
/* DISPOSITIU */
/**************/

type Device struct {

  Name     string
  Kind     device.Kind
  Index    int    // Posició dins de la sessió
  Path     string // Fitxer o dispositiu de blocs
  Profiles []*Profile

  buckets [NUM_CATEGORIES][]*Item

}


// Elements compartits d'una categoria, en ordre d'escaneig.
func (self *Device) Bucket( c Category ) []*Item {
  if c < 0 || int(c) >= NUM_CATEGORIES { return nil }
  return self.buckets[c]
} // end Bucket


// Tots els elements: primer els perfils i les seues partides, després
// les categories.
func (self *Device) Handles() []*Handle {

  ret := make ( []*Handle, 0, 32 )
  for _,p := range self.Profiles {
    if p.Path != "" { ret= append ( ret, &p.Handle ) }
    for _,t := range p.Titles {
      for _,s := range t.Saves { ret= append ( ret, &s.Handle ) }
    }
  }
  for _,b := range self.buckets {
    for _,it := range b { ret= append ( ret, &it.Handle ) }
  }

  return ret

} // end Handles


// Busca un element pel seu camí en el dispositiu.
func (self *Device) Find( path string ) (*Handle,bool) {
  for _,h := range self.Handles () {
    if strings.EqualFold ( h.Path, path ) { return h,true }
  }
  return nil,false
} // end Find
