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
 *  task.go - Transferències en segon pla.
 *
 */

package transfer

import (
  "context"

  "github.com/google/uuid"

  "github.com/adriagipas/xcontent/utils"
)


// Una transferència que s'executa en la seua pròpia goroutine.
type Task struct {

  ID uuid.UUID

  cancel  context.CancelFunc
  done    chan struct{}
  results []Result

}


// Executa fn en una goroutine nova. kind i n sols s'empren per al
// registre.
func StartTask(

  ctx    context.Context,
  logger utils.Logger,
  kind   string,
  n      int,
  fn     func(ctx context.Context) []Result,

) *Task {

  logger= utils.OrNop ( logger )
  ctx,cancel := context.WithCancel ( ctx )
  ret := &Task{
    ID: uuid.New (),
    cancel: cancel,
    done: make ( chan struct{} ),
  }
  logger.Info ( "transfer started", "task", ret.ID.String (),
    "kind", kind, "items", n )
  go func() {
    defer close ( ret.done )
    defer cancel ()
    ret.results= fn ( ctx )
    failed := 0
    for _,r := range ret.results {
      if r.Err != nil { failed++ }
    }
    logger.Info ( "transfer finished", "task", ret.ID.String (),
      "kind", kind, "items", n, "failed", failed )
  }()

  return ret

} // end StartTask


func (self *Engine) StartExtract(

  ctx      context.Context,
  items    []Item,
  dest_dir string,

) *Task {
  return StartTask ( ctx, self.logger, "extract", len(items),
    func(ctx context.Context) []Result {
      return self.Extract ( ctx, items, dest_dir )
    })
} // end StartExtract


func (self *Engine) StartInject( ctx context.Context, files []string ) *Task {
  return StartTask ( ctx, self.logger, "inject", len(files),
    func(ctx context.Context) []Result {
      return self.Inject ( ctx, files )
    })
} // end StartInject


// Espera que acabe i torna un resultat per element.
func (self *Task) Wait() []Result {
  <-self.done
  return self.results
}


func (self *Task) Done() <-chan struct{} { return self.done }


// Els elements que encara no s'han començat acaben amb
// context.Canceled. El que s'està escrivint no es fa visible.
func (self *Task) Cancel() { self.cancel () }
