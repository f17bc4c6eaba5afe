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
 *  remove.go - Implementa l'operació REMOVE. Elimina paquets, fitxers
 *              o directoris.
 *
 */

package ops

import (
  "context"
  "errors"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/transfer"
  "github.com/adriagipas/xcontent/utils"
)


/************/
/* OPERACIÓ */
/************/

// Els paquets del catàleg s'esborren amb els seus fitxers de
// dades. La resta són entrades normals del volum i, si recursive és
// cert, els directoris s'esborren amb tot el seu contingut.
func Remove(

  ctx       context.Context,
  env       *Env,
  args      []string,
  recursive bool,

) error {

  // Comprova que hi han PATHs
  if len(args) == 0 {
    return errors.New ( "no file paths provided to rm command" )
  }

  s,err := env.OpenSession ( ctx, true )
  if err != nil { return err }
  defer s.Close ()

  // Processa args
  batches,err := groupHandles ( s, args )
  if err != nil { return err }
  res := []transfer.Result{}
  for _,b := range batches {

    // Entrades que no són paquets
    for _,h := range b.handles {
      if h.Header != nil { continue }
      path := h.Path
      if path == "/" {
        return errors.New ( "the root directory cannot be removed" )
      }
      err := s.Modify ( ctx, b.dev, func(vol *fatx.Volume) error {
        if recursive { return vol.RemoveAll ( path ) }
        return vol.DeleteEntry ( path )
      })
      r := transfer.Result{Source: path, Err: err}
      if err == nil {
        r.Files= []string{path}
      } else {
        utils.Warning ( "remove '%s': %s", path, err )
      }
      res= append ( res, r )
    }

    // Paquets
    pkgs := b.handles[:0:0]
    for _,h := range b.handles {
      if h.Header != nil { pkgs= append ( pkgs, h ) }
    }
    if len(pkgs) > 0 {
      res= append ( res, s.Delete ( ctx, b.dev, pkgs,
        callbacks ( "remove" ) )... )
    }

  }

  return countFailed ( res )

} // end Remove
