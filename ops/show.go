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
 * show.go - Implementa les operacions DEVICES i SHOW. Mostren els
 *           dispositius, el seu catàleg o la capçalera d'un paquet.
 */

package ops

import (
  "context"
  "fmt"
  "io"

  "github.com/adriagipas/xcontent/catalog"
  "github.com/adriagipas/xcontent/utils"
  "github.com/adriagipas/xcontent/x360"
)


/***********/
/* DEVICES */
/***********/

func Devices( ctx context.Context, env *Env ) error {

  w := env.out ()
  handles := env.Handles ( ctx )
  if len(handles) == 0 {
    fmt.Fprintln ( w, "No FATX devices found" )
    return nil
  }
  for i,h := range handles {
    fmt.Fprintf ( w, "  %d) %s\n", i, h )
  }

  return nil

} // end Devices


/********/
/* SHOW */
/********/

func printDevice( w io.Writer, dev *catalog.Device ) {

  P := func(indent int, format string, args ...any) {
    for i := 0; i < indent; i++ { fmt.Fprint ( w, "  " ) }
    fmt.Fprintf ( w, format, args... )
    fmt.Fprint ( w, "\n" )
  }
  item := func(indent int, h *catalog.Handle) {
    P(indent,"%s  [%s]  %s", h.DisplayName (),
      utils.NumBytesToStr ( uint64(h.Size) ), h.Path )
  }

  P(0,"%d) %s (%s)", dev.Index, dev.Name, dev.Kind )
  for _,p := range dev.Profiles {
    P(1,"%s  (%s)", p.DisplayName (), p.ID )
    for _,t := range p.Titles {
      P(2,"%s", t.DisplayName () )
      for _,s := range t.Saves { item ( 3, &s.Handle ) }
    }
  }
  for _,c := range catalog.Categories () {
    items := dev.Bucket ( c )
    if len(items) == 0 { continue }
    P(1,"%s", c )
    for _,it := range items { item ( 2, &it.Handle ) }
  }

} // end printDevice


// Resum del contingut d'un paquet.
func printContents(

  w    io.Writer,
  pkg  *x360.Package,
  aux  []string,

) error {

  fmt.Fprintln ( w, "" )
  switch pkg.Kind {
  case x360.FS_STFS:
    l,err := pkg.STFS.GetFileListing ( false )
    if err != nil { return err }
    nfiles,size := 0,uint64(0)
    err= l.Walk ( func(_ string, e *x360.FileEntry) error {
      if !e.IsDir () {
        nfiles++
        size+= uint64(e.Size)
      }
      return nil
    })
    if err != nil { return err }
    fmt.Fprintf ( w, "  Files: %d (%s)\n", nfiles,
      utils.NumBytesToStr ( size ) )
  default:
    for _,p := range aux {
      fmt.Fprintf ( w, "  Data file: %s\n", p )
    }
    if err := pkg.SVOD.CheckDataFiles (); err != nil {
      fmt.Fprintf ( w, "  Data files: %s\n", err )
    } else {
      fmt.Fprintln ( w, "  Data files: OK" )
    }
  }

  return nil

} // end printContents


// Sense arguments mostra el catàleg de tots els dispositius. Amb
// l'arrel d'un dispositiu mostra el volum, i amb un paquet la seua
// capçalera.
func Show( ctx context.Context, env *Env, args []string ) error {

  s,err := env.OpenSession ( ctx, false )
  if err != nil { return err }
  defer s.Close ()
  w := env.out ()

  if len(args) == 0 {
    for _,dev := range s.Devices () {
      printDevice ( w, dev )
      fmt.Fprintln ( w, "" )
    }
    return nil
  }

  for _,arg := range args {
    dev,path,err := resolve ( s, arg )
    if err != nil { return err }
    fmt.Fprintln ( w, "" )
    if len(path.Paths) == 0 {
      vol,err := s.Volume ( dev )
      if err != nil { return err }
      if err := vol.PrintInfo ( w, "  " ); err != nil { return err }
      fmt.Fprintln ( w, "" )
      printDevice ( w, dev )
      continue
    }
    h,ok := dev.Find ( path.Path )
    if !ok {
      return fmt.Errorf ( "'%s' is not a package in the catalog", arg )
    }
    if err := h.Header.PrintInfo ( w, "  " ); err != nil { return err }
    vol,err := s.Volume ( dev )
    if err != nil { return err }
    pkg,err := openPackage ( env, vol, h.Path )
    if err != nil { return err }
    if err := printContents ( w, pkg, h.AuxPaths ); err != nil {
      return err
    }
  }

  return nil

} // end Show
