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
 *  cat.go - Implementa l'operació CAT. Concatena fitxers del volum,
 *           fitxers de dins d'un paquet o miniatures i els imprimeix.
 *
 */

package ops

import (
  "context"
  "errors"
  "fmt"
  "io"

  "github.com/adriagipas/xcontent/x360"
)


const (
  CAT_DATA            = 0
  CAT_THUMBNAIL       = 1
  CAT_TITLE_THUMBNAIL = 2
)

const CAT_BUF_SIZE = 0x10000


func openInner(

  pkg   *x360.Package,
  inner string,

) (io.ReadCloser,error) {

  switch pkg.Kind {
  case x360.FS_STFS:
    l,err := pkg.STFS.GetFileListing ( false )
    if err != nil { return nil,err }
    e,ok := l.Find ( inner )
    if !ok { return nil,fmt.Errorf ( "'%s' not found in package", inner ) }
    return pkg.STFS.OpenFile ( e )
  default:
    l,err := pkg.SVOD.GetFileListing ()
    if err != nil { return nil,err }
    e,ok := l.Find ( inner )
    if !ok { return nil,fmt.Errorf ( "'%s' not found in package", inner ) }
    return pkg.SVOD.OpenFile ( e )
  }

} // end openInner


/************/
/* OPERACIÓ */
/************/

// mode indica què s'imprimeix. Les miniatures sols tenen sentit sobre
// paquets.
func Cat( ctx context.Context, env *Env, args []string, mode int ) error {

  // Comprova que hi han PATHs
  if len(args) == 0 {
    return errors.New ( "no file paths provided to cat command" )
  }

  s,err := env.OpenSession ( ctx, false )
  if err != nil { return err }
  defer s.Close ()
  w := env.out ()
  buf := make ( []byte, CAT_BUF_SIZE )

  for _,arg := range args {

    outer,inner,in_pkg := splitInner ( arg )
    dev,path,err := resolve ( s, outer )
    if err != nil { return err }
    if path.IsDir {
      return errors.New ( "cat command cannot be applied over directories" )
    }
    vol,err := s.Volume ( dev )
    if err != nil { return err }

    // Miniatures
    if mode != CAT_DATA {
      pkg,err := openPackage ( env, vol, path.Path )
      if err != nil { return err }
      var data []byte
      var ok bool
      if mode == CAT_THUMBNAIL {
        data,ok= pkg.Header ().Thumbnail ()
      } else {
        data,ok= pkg.Header ().TitleThumbnail ()
      }
      if !ok {
        return fmt.Errorf ( "'%s' has no thumbnail", path.Path )
      }
      if _,err := w.Write ( data ); err != nil { return err }
      continue
    }

    // Obri fitxer
    var f io.ReadCloser
    if in_pkg {
      pkg,err := openPackage ( env, vol, path.Path )
      if err != nil { return err }
      if f,err= openInner ( pkg, inner ); err != nil { return err }
    } else {
      if f,err= vol.OpenFile ( path.Path ); err != nil { return err }
    }

    // Llig i imprimeix
    _,err= io.CopyBuffer ( w, f, buf )
    f.Close ()
    if err != nil { return err }
    if err := ctx.Err (); err != nil { return err }

  }

  return nil

} // end Cat

