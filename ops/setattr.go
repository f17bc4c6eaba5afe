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
 *  setattr.go - Implementa l'operació SETATTR. Canvia els atributs i
 *               les dates d'una entrada del volum, o el nom i els
 *               atributs d'un fitxer de dins d'un paquet SVOD.
 *
 */

package ops

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/x360"
)


// Valors buits vol dir que no es canvien.
type EntryEdit struct {

  Name       string   // Sols dins de paquets
  Attributes []string // nil no canvia, buit els lleva tots
  Created    time.Time
  Modified   time.Time
  Accessed   time.Time

}


func (self *EntryEdit) hasTimes() bool {
  return !self.Created.IsZero () || !self.Modified.IsZero () ||
    !self.Accessed.IsZero ()
}


var _ATTR_BITS = map[string]uint8{
  "readonly": x360.GDFX_ATTR_READ_ONLY,
  "hidden": x360.GDFX_ATTR_HIDDEN,
  "system": x360.GDFX_ATTR_SYSTEM,
  "archive": x360.GDFX_ATTR_ARCHIVE,
  "device": x360.GDFX_ATTR_DEVICE,
  "normal": x360.GDFX_ATTR_NORMAL,
}

const _FATX_ATTRS = fatx.ATTR_READ_ONLY | fatx.ATTR_HIDDEN |
  fatx.ATTR_SYSTEM | fatx.ATTR_ARCHIVE


func parseAttrs( names []string, allowed uint8 ) (uint8,error) {

  var ret uint8
  for _,n := range names {
    bit,ok := _ATTR_BITS[strings.ToLower ( strings.TrimSpace ( n ) )]
    if !ok || bit&allowed == 0 {
      return 0,fmt.Errorf ( "unknown attribute '%s'", n )
    }
    ret|= bit
  }

  return ret,nil

} // end parseAttrs


/************/
/* OPERACIÓ */
/************/

func SetEntry( ctx context.Context, env *Env, arg string, edit EntryEdit ) error {

  s,err := env.OpenSession ( ctx, true )
  if err != nil { return err }
  defer s.Close ()

  outer,inner,in_pkg := splitInner ( arg )
  dev,path,err := resolve ( s, outer )
  if err != nil { return err }

  // Dins d'un paquet
  if in_pkg {
    if edit.hasTimes () {
      return errors.New ( "GDFX entries have no dates" )
    }
    return s.Modify ( ctx, dev, func(vol *fatx.Volume) error {
      pkg,err := openPackage ( env, vol, path.Path )
      if err != nil { return err }
      if pkg.Kind != x360.FS_SVOD {
        return fmt.Errorf ( "'%s' is not an SVOD package", path.Path )
      }
      l,err := pkg.SVOD.GetFileListing ()
      if err != nil { return err }
      e,ok := l.Find ( inner )
      if !ok { return fmt.Errorf ( "'%s' not found in package", inner ) }
      name,attrs := e.Name,e.Attributes
      if edit.Name != "" { name= edit.Name }
      if edit.Attributes != nil {
        if attrs,err= parseAttrs ( edit.Attributes, 0xFF ); err != nil {
          return err
        }
      }
      return pkg.SVOD.WriteFileEntry ( e, name, attrs )
    })
  }

  // Volum
  if edit.Name != "" {
    return errors.New ( "volume entries are renamed with the rename command" )
  }
  return s.Modify ( ctx, dev, func(vol *fatx.Volume) error {
    e,err := vol.Stat ( path.Path )
    if err != nil { return err }
    attrs := e.Attributes
    if edit.Attributes != nil {
      if attrs,err= parseAttrs ( edit.Attributes, _FATX_ATTRS ); err != nil {
        return err
      }
    }
    return vol.SetEntryInfo ( path.Path, attrs,
      edit.Created, edit.Modified, edit.Accessed )
  })

} // end SetEntry
