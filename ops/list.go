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
 *  list.go - Implementa l'operació LIST. Mostra per pantalla el
 *            contingut d'un directori del volum o d'un paquet.
 *
 */

package ops

import (
  "context"
  "errors"
  "fmt"
  "io"
  "strings"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
  "github.com/adriagipas/xcontent/x360"
)


// Separa el camí dins d'un paquet: "0=/Content/.../SAVE::/dir/file".
const INNER_SEP = "::"


func splitInner( arg string ) (string,string,bool) {

  pos := strings.Index ( arg, INNER_SEP )
  if pos == -1 { return arg,"",false }

  return arg[:pos],utils.JoinPath ( arg[pos+len(INNER_SEP):] ),true

} // end splitInner


func openPackage(

  env  *Env,
  vol  *fatx.Volume,
  path string,

) (*x360.Package,error) {
  return x360.OpenPackage ( vol, path, x360.OpenOptions{
    Verify: env.Cfg.Catalog.VerifyHashes,
    Logger: env.logger (),
  })
} // end openPackage


/***********/
/* PAQUETS */
/***********/

func listLine(

  w     io.Writer,
  dir   bool,
  size  uint64,
  name  string,
  attrs []string,

) {

  kind := "-"
  desc := x360.FileTypeString ( name )
  if dir {
    kind= "d"
    desc= "Folder"
  }
  size_str := utils.NumBytesToStr ( size )
  fmt.Fprintf ( w, "%s  %10s  %-20s  %s", kind, size_str, desc, name )
  if len(attrs) > 0 {
    fmt.Fprintf ( w, "  [%s]", strings.Join ( attrs, "," ) )
  }
  fmt.Fprint ( w, "\n" )

} // end listLine


// Llista el contingut d'un paquet. inner buit vol dir l'arrel.
func listPackage(

  w     io.Writer,
  pkg   *x360.Package,
  inner string,

) error {

  switch pkg.Kind {

  case x360.FS_STFS:
    l,err := pkg.STFS.GetFileListing ( false )
    if err != nil { return err }
    entries := l.Root
    if inner != "/" {
      e,ok := l.Find ( inner )
      if !ok { return fmt.Errorf ( "'%s' not found in package", inner ) }
      if !e.IsDir () {
        listLine ( w, false, uint64(e.Size), e.Name, nil )
        return nil
      }
      entries= e.Children
    }
    for _,e := range entries {
      listLine ( w, e.IsDir (), uint64(e.Size), e.Name, nil )
    }

  default:
    l,err := pkg.SVOD.GetFileListing ()
    if err != nil { return err }
    entries := l.Root
    if inner != "/" {
      e,ok := l.Find ( inner )
      if !ok { return fmt.Errorf ( "'%s' not found in package", inner ) }
      if !e.IsDir () {
        listLine ( w, false, uint64(e.SizeOnDisk ()), e.Name,
          e.AttributeNames () )
        return nil
      }
      entries= e.Children
    }
    for _,e := range entries {
      listLine ( w, e.IsDir (), uint64(e.SizeOnDisk ()), e.Name,
        e.AttributeNames () )
    }

  }

  return nil

} // end listPackage


/************/
/* OPERACIÓ */
/************/

func List( ctx context.Context, env *Env, args []string ) error {

  // Comprova que hi han PATHs
  if len(args) == 0 {
    return errors.New ( "no file paths provided to ls command" )
  }

  s,err := env.OpenSession ( ctx, false )
  if err != nil { return err }
  defer s.Close ()
  w := env.out ()

  for _,arg := range args {

    outer,inner,in_pkg := splitInner ( arg )
    dev,path,err := resolve ( s, outer )
    if err != nil { return err }
    vol,err := s.Volume ( dev )
    if err != nil { return err }

    // Dins d'un paquet
    if in_pkg {
      pkg,err := openPackage ( env, vol, path.Path )
      if err != nil { return err }
      if err := listPackage ( w, pkg, inner ); err != nil { return err }
      continue
    }

    // Volum
    e,err := vol.Stat ( path.Path )
    if err != nil { return err }
    if !e.IsDir () {
      if path.IsDir {
        return fmt.Errorf ( "'%s' is not a directory", path.Path )
      }
      e.List ( w )
      continue
    }
    it,err := vol.OpenDir ( path.Path )
    if err != nil { return err }
    for ; err == nil && !it.End (); err= it.Next () {
      e := it.Entry ()
      e.List ( w )
    }
    if err != nil { return err }

  }

  return nil

} // end List
