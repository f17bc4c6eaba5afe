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
 *  env.go - Context compartit per totes les operacions.
 *
 */

package ops

import (
  "context"
  "errors"
  "fmt"
  "io"
  "os"

  "golang.org/x/term"

  "github.com/adriagipas/xcontent/catalog"
  "github.com/adriagipas/xcontent/config"
  "github.com/adriagipas/xcontent/device"
  "github.com/adriagipas/xcontent/transfer"
  "github.com/adriagipas/xcontent/utils"
)


type Env struct {

  Cfg    *config.Config
  Logger utils.Logger
  Out    io.Writer

}


func (self *Env) out() io.Writer {
  if self.Out == nil { return os.Stdout }
  return self.Out
}


func (self *Env) logger() utils.Logger { return utils.OrNop ( self.Logger ) }


func (self *Env) Handles( ctx context.Context ) []*device.Handle {
  return device.Enumerate ( ctx, self.Cfg.Sources (), self.logger () )
}


// Obri una sessió amb tots els dispositius detectats.
func (self *Env) OpenSession(

  ctx      context.Context,
  writable bool,

) (*catalog.Session,error) {

  handles := self.Handles ( ctx )
  if len(handles) == 0 {
    return nil,errors.New ( "no FATX devices found" )
  }

  return catalog.NewSession ( ctx, handles, catalog.Options{
    ContentDir: self.Cfg.Catalog.ContentDir,
    Verify: self.Cfg.Catalog.VerifyHashes,
    Writable: writable,
    InjectDir: self.Cfg.Transfer.InjectDir,
    BufferSize: self.Cfg.Transfer.BufferSize,
    Logger: self.logger (),
  })

} // end OpenSession


// Dispositiu i camí a partir de la sintaxi DEV=/camí.
func resolve(

  s   *catalog.Session,
  arg string,

) (*catalog.Device,*utils.Path,error) {

  path,err := utils.ParsePath ( arg )
  if err != nil { return nil,nil,err }
  dev,err := s.Device ( path.Device )
  if err != nil { return nil,nil,err }

  return dev,path,nil

} // end resolve


// Mostra el progrés per stderr si és un terminal. Els errors sempre.
func callbacks( verb string ) catalog.Callbacks {

  tty := term.IsTerminal ( int(os.Stderr.Fd ()) )

  return catalog.Callbacks{
    OnItem: func(i, n int, res transfer.Result) {
      if res.Err != nil {
        utils.Warning ( "%s '%s': %s", verb, res.Source, res.Err )
      } else if tty {
        fmt.Fprintf ( os.Stderr, "[%d/%d] %s %s -> %s\n", i+1, n, verb,
          res.Source, res.Target )
      }
    },
  }

} // end callbacks


func countFailed( res []transfer.Result ) error {

  n := 0
  for _,r := range res {
    if r.Err != nil { n++ }
  }
  if n > 0 {
    return fmt.Errorf ( "%d of %d items failed", n, len(res) )
  }

  return nil

} // end countFailed
