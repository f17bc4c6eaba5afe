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
 *  copy.go - Implementa les operacions EXTRACT i INJECT. Copien
 *            paquets entre el dispositiu i el sistema local.
 *
 */

package ops

import (
  "context"
  "errors"
  "os"

  "github.com/adriagipas/xcontent/catalog"
  "github.com/adriagipas/xcontent/transfer"
)


// Elements del catàleg agrupats per dispositiu, en l'ordre dels
// arguments.
type _Batch struct {
  dev     *catalog.Device
  handles []*catalog.Handle
}


func groupHandles(

  s    *catalog.Session,
  args []string,

) ([]*_Batch,error) {

  ret := []*_Batch{}
  for _,arg := range args {
    dev,path,err := resolve ( s, arg )
    if err != nil { return nil,err }
    h,ok := dev.Find ( path.Path )
    if !ok {
      // Fitxer que no és un paquet. Es copia tal qual.
      h= &catalog.Handle{Path: path.Path}
    }
    var b *_Batch
    for _,tmp := range ret {
      if tmp.dev.Index == dev.Index { b= tmp }
    }
    if b == nil {
      b= &_Batch{dev: dev}
      ret= append ( ret, b )
    }
    b.handles= append ( b.handles, h )
  }

  return ret,nil

} // end groupHandles


/***********/
/* EXTRACT */
/***********/

func Extract(

  ctx      context.Context,
  env      *Env,
  args     []string,
  dest_dir string,

) error {

  // Comprova arguments
  if len(args) == 0 {
    return errors.New ( "no package paths provided to extract command" )
  }
  if err := os.MkdirAll ( dest_dir, 0755 ); err != nil { return err }

  s,err := env.OpenSession ( ctx, false )
  if err != nil { return err }
  defer s.Close ()

  batches,err := groupHandles ( s, args )
  if err != nil { return err }
  res := []transfer.Result{}
  for _,b := range batches {
    tmp := s.Extract ( ctx, b.dev, b.handles, dest_dir,
      callbacks ( "extract" ) )
    res= append ( res, tmp... )
  }

  return countFailed ( res )

} // end Extract


/**********/
/* INJECT */
/**********/

// Cada fitxer local va al seu lloc segons la capçalera. dev_arg és
// l'índex del dispositiu ("0=", "1=" ...) o buit per al primer.
func Inject(

  ctx     context.Context,
  env     *Env,
  dev_arg string,
  files   []string,

) error {

  // Comprova arguments
  if len(files) == 0 {
    return errors.New ( "no local files provided to inject command" )
  }
  if dev_arg == "" { dev_arg= "0=/" }

  s,err := env.OpenSession ( ctx, true )
  if err != nil { return err }
  defer s.Close ()

  dev,_,err := resolve ( s, dev_arg )
  if err != nil { return err }
  task := s.StartInject ( ctx, dev, files, callbacks ( "inject" ) )
  env.logger ().Debug ( "waiting for inject task", "task", task.ID.String () )

  return countFailed ( task.Wait () )

} // end Inject
