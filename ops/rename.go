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
 *  rename.go - Implementa les operacions RENAME i RENAME-DEVICE.
 *
 */

package ops

import (
  "context"
  "fmt"

  "github.com/adriagipas/xcontent/fatx"
)


/**********/
/* RENAME */
/**********/

// Si és un paquet del catàleg es reanomenen també les seues dades.
func Rename( ctx context.Context, env *Env, arg, new_name string ) error {

  s,err := env.OpenSession ( ctx, true )
  if err != nil { return err }
  defer s.Close ()

  dev,path,err := resolve ( s, arg )
  if err != nil { return err }
  if h,ok := dev.Find ( path.Path ); ok {
    return s.RenameItem ( ctx, dev, h, new_name )
  }

  return s.Modify ( ctx, dev, func(vol *fatx.Volume) error {
    return vol.RenameEntry ( path.Path, new_name )
  })

} // end Rename


/*****************/
/* RENAME-DEVICE */
/*****************/

// El nom sols dura el que dura la sessió. No s'escriu res al volum.
func RenameDevice( ctx context.Context, env *Env, arg, name string ) error {

  s,err := env.OpenSession ( ctx, false )
  if err != nil { return err }
  defer s.Close ()

  dev,_,err := resolve ( s, arg )
  if err != nil { return err }
  if err := s.RenameDevice ( dev, name ); err != nil { return err }
  for _,d := range s.Devices () {
    fmt.Fprintf ( env.out (), "  %d) %s (%s)\n", d.Index, d.Name, d.Kind )
  }

  return nil

} // end RenameDevice
