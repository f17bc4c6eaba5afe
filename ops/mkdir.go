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
 *  mkdir.go - Implementa l'operació MKDIR. Crea directoris.
 *
 */

package ops

import (
  "context"
  "errors"

  "github.com/adriagipas/xcontent/fatx"
)


/************/
/* OPERACIÓ */
/************/

func Mkdir( ctx context.Context, env *Env, args []string ) error {

  // Comprova que hi han PATHs
  if len(args) == 0 {
    return errors.New ( "no file paths provided to mkdir command" )
  }

  s,err := env.OpenSession ( ctx, true )
  if err != nil { return err }
  defer s.Close ()

  // Processa args
  for _,arg := range args {
    dev,path,err := resolve ( s, arg )
    if err != nil { return err }
    err= s.Modify ( ctx, dev, func(vol *fatx.Volume) error {
      return vol.MkdirAll ( path.Path )
    })
    if err != nil { return err }
  }

  return nil

} // end Mkdir
