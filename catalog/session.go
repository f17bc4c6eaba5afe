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
 *  session.go - Sessió sobre un conjunt de dispositius.
 *
 *  Cada operació que modifica un dispositiu agafa el seu mutex i
 *  reconstrueix el seu catàleg en acabar. Els *Device que tornen les
 *  consultes no es modifiquen mai, es reemplacen.
 *
 */

package catalog

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "sync"

  "github.com/google/uuid"

  "github.com/adriagipas/xcontent/device"
  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/transfer"
  "github.com/adriagipas/xcontent/utils"
)


var ErrNoDevice = errors.New ( "catalog: device not in session" )


// Notificacions d'una operació llarga.
type Callbacks struct {
  Progress transfer.ProgressFunc
  OnItem   transfer.ItemFunc
}


func (self *Callbacks) begin() {
  if self.Progress != nil { self.Progress ( false ) }
}


func (self *Callbacks) end() {
  if self.Progress != nil { self.Progress ( true ) }
}


type _Slot struct {

  handle *device.Handle
  opened *device.Opened
  mu     sync.Mutex // Operacions que modifiquen

  // Protegits per Session.mu
  dev  *Device
  name string // Nom canviat en la sessió

}


type Session struct {

  ID uuid.UUID

  opts   Options
  logger utils.Logger
  mu     sync.RWMutex
  slots  []*_Slot

}


// Obri els dispositius i construeix els seus catàlegs. Els que no es
// poden obrir s'ometen, però si un ja està obert per escriptura en una
// altra sessió torna device.ErrBusy.
func NewSession(

  ctx     context.Context,
  handles []*device.Handle,
  opts    Options,

) (*Session,error) {

  ret := &Session{
    ID: uuid.New (),
    opts: opts,
    logger: utils.OrNop ( opts.Logger ),
  }
  for i,h := range handles {
    op,err := h.Open ( opts.Writable )
    if errors.Is ( err, device.ErrBusy ) {
      ret.Close ()
      return nil,fmt.Errorf ( "%w: %s", err, h.Path )
    }
    if err != nil {
      ret.logger.Warn ( "skipping device", "path", h.Path, "error", err )
      continue
    }
    s := &_Slot{handle: h, opened: op}
    dev,err := ret.build ( ctx, s, i )
    if err != nil {
      op.Close ()
      if ctx.Err () != nil {
        ret.Close ()
        return nil,ctx.Err ()
      }
      ret.logger.Warn ( "skipping device", "path", h.Path, "error", err )
      continue
    }
    s.dev= dev
    ret.slots= append ( ret.slots, s )
  }
  ret.logger.Info ( "session opened", "session", ret.ID.String (),
    "devices", len(ret.slots), "writable", opts.Writable )

  return ret,nil

} // end NewSession


func (self *Session) build( ctx context.Context, s *_Slot,
  index int ) (*Device,error) {

  dev,err := BuildDevice ( ctx, Volume{
    Vol: s.opened.Volume,
    Kind: s.handle.Kind (),
    Path: s.handle.Path,
  }, self.opts )
  if err != nil { return nil,err }
  dev.Index= index

  return dev,nil

} // end build


// S'ha de cridar amb s.mu agafat.
func (self *Session) rebuild( ctx context.Context, s *_Slot ) error {

  self.mu.RLock ()
  index,name := s.dev.Index,s.name
  self.mu.RUnlock ()
  dev,err := self.build ( ctx, s, index )
  if err != nil { return err }
  if name != "" { dev.Name= name }
  self.mu.Lock ()
  s.dev= dev
  self.mu.Unlock ()

  return nil

} // end rebuild


func (self *Session) slot( dev *Device ) (*_Slot,error) {

  if dev == nil { return nil,ErrNoDevice }
  self.mu.RLock ()
  defer self.mu.RUnlock ()
  s := self.find ( dev.Index )
  if s == nil || s.handle.Path != dev.Path {
    return nil,fmt.Errorf ( "%w: %s", ErrNoDevice, dev.Path )
  }

  return s,nil

} // end slot


// L'índex és la posició en l'enumeració, no dins de slots: un
// dispositiu que no s'ha pogut obrir deixa un forat.
func (self *Session) find( index int ) *_Slot {
  for _,s := range self.slots {
    if s.dev.Index == index { return s }
  }
  return nil
} // end find


// Executa fn amb el dispositiu bloquejat i després reconstrueix el
// catàleg.
func (self *Session) mutate(

  ctx context.Context,
  dev *Device,
  cb  *Callbacks,
  fn  func(s *_Slot) error,

) error {

  s,err := self.slot ( dev )
  if err != nil { return err }
  if cb != nil {
    cb.begin ()
    defer cb.end ()
  }
  s.mu.Lock ()
  defer s.mu.Unlock ()
  ferr := fn ( s )
  // Encara que el context s'haja cancel·lat cal un catàleg coherent.
  if err := self.rebuild ( context.WithoutCancel ( ctx ), s ); err != nil {
    self.logger.Error ( "unable to rebuild catalog", "device", dev.Path,
      "error", err )
    if ferr == nil { ferr= err }
  }

  return ferr

} // end mutate


/************/
/* CONSULTA */
/************/

// Ordre estable durant tota la sessió.
func (self *Session) Devices() []*Device {

  self.mu.RLock ()
  defer self.mu.RUnlock ()
  ret := make ( []*Device, len(self.slots) )
  for i,s := range self.slots { ret[i]= s.dev }

  return ret

} // end Devices


func (self *Session) Device( i int ) (*Device,error) {

  self.mu.RLock ()
  defer self.mu.RUnlock ()
  s := self.find ( i )
  if s == nil {
    return nil,fmt.Errorf ( "%w: %d", ErrNoDevice, i )
  }

  return s.dev,nil

} // end Device


// Volum obert d'un dispositiu, per a lectures directes.
func (self *Session) Volume( dev *Device ) (*fatx.Volume,error) {
  s,err := self.slot ( dev )
  if err != nil { return nil,err }
  return s.opened.Volume,nil
} // end Volume


// Torna a construir tots els catàlegs.
func (self *Session) Rebuild( ctx context.Context ) error {

  for _,dev := range self.Devices () {
    s,err := self.slot ( dev )
    if err != nil { return err }
    s.mu.Lock ()
    err= self.rebuild ( ctx, s )
    s.mu.Unlock ()
    if err != nil { return err }
  }

  return nil

} // end Rebuild


/*************/
/* MUTACIONS */
/*************/

// Sols canvia el nom en memòria. El volum no es modifica.
func (self *Session) RenameDevice( dev *Device, name string ) error {

  name= strings.TrimSpace ( name )
  if name == "" { return errors.New ( "catalog: empty device name" ) }
  s,err := self.slot ( dev )
  if err != nil { return err }
  s.mu.Lock ()
  defer s.mu.Unlock ()
  self.mu.Lock ()
  tmp := *s.dev
  tmp.Name= name
  s.name= name
  s.dev= &tmp
  self.mu.Unlock ()

  return nil

} // end RenameDevice


// Operació directa sobre el volum (mkdir, rm d'un fitxer qualsevol...)
// amb el dispositiu bloquejat. El catàleg es reconstrueix després.
func (self *Session) Modify(

  ctx context.Context,
  dev *Device,
  fn  func(vol *fatx.Volume) error,

) error {
  return self.mutate ( ctx, dev, nil, func(s *_Slot) error {
    return fn ( s.opened.Volume )
  })
} // end Modify


// Esborra cada element amb els seus fitxers de dades. Primer
// desapareix el fitxer principal.
func (self *Session) Delete(

  ctx     context.Context,
  dev     *Device,
  handles []*Handle,
  cb      Callbacks,

) []transfer.Result {

  ret := newResults ( handlePaths ( handles ) )
  err := self.mutate ( ctx, dev, &cb, func(s *_Slot) error {
    for i,h := range handles {
      if err := ctx.Err (); err != nil {
        ret[i]= transfer.Result{Source: h.Path, Err: err}
      } else {
        ret[i]= self.deleteHandle ( s.opened.Volume, h )
      }
      if ret[i].Err != nil {
        self.logger.Warn ( "delete failed", "path", h.Path,
          "error", ret[i].Err )
      }
      if cb.OnItem != nil { cb.OnItem ( i, len(handles), ret[i] ) }
    }
    return nil
  })
  if err != nil { fillErr ( ret, err ) }

  return ret

} // end Delete


func (self *Session) deleteHandle( vol *fatx.Volume, h *Handle ) transfer.Result {

  ret := transfer.Result{Source: h.Path}
  if err := vol.DeleteEntry ( h.Path ); err != nil {
    ret.Err= err
    return ret
  }
  ret.Files= append ( ret.Files, h.Path )

  dirs := []string{}
  for _,p := range h.AuxPaths {
    if err := vol.DeleteEntry ( p ); err != nil {
      if !errors.Is ( err, fatx.ErrNotFound ) && ret.Err == nil {
        ret.Err= err
      }
      continue
    }
    ret.Files= append ( ret.Files, p )
    dir,_ := utils.SplitDirName ( p )
    if len(dirs) == 0 || dirs[len(dirs)-1] != dir {
      dirs= append ( dirs, dir )
    }
  }
  // Directori <nom>.data si ha quedat buit
  for _,dir := range dirs {
    if !strings.HasSuffix ( strings.ToLower ( dir ), ".data" ) { continue }
    err := vol.DeleteEntry ( dir )
    if err != nil && !errors.Is ( err, fatx.ErrNotEmpty ) &&
      !errors.Is ( err, fatx.ErrNotFound ) && ret.Err == nil {
      ret.Err= err
    }
  }

  return ret

} // end deleteHandle


// Reanomena el fitxer principal i, si és un SVOD, el directori de
// dades.
func (self *Session) RenameItem(

  ctx      context.Context,
  dev      *Device,
  h        *Handle,
  new_name string,

) error {

  return self.mutate ( ctx, dev, nil, func(s *_Slot) error {
    vol := s.opened.Volume
    if len(h.AuxPaths) > 0 && len(new_name)+5 > fatx.MAX_NAME_LEN {
      return fmt.Errorf ( "%w: '%s.data'", fatx.ErrNameTooLong, new_name )
    }
    if err := vol.RenameEntry ( h.Path, new_name ); err != nil {
      return err
    }
    if len(h.AuxPaths) == 0 { return nil }
    data_dir := h.Path + ".data"
    if _,err := vol.Stat ( data_dir ); errors.Is ( err, fatx.ErrNotFound ) {
      return nil
    }
    if err := vol.RenameEntry ( data_dir, new_name+".data" ); err != nil {
      dir,_ := utils.SplitDirName ( h.Path )
      if rerr := vol.RenameEntry ( utils.JoinPath ( dir, new_name ),
        h.RawName ); rerr != nil {
        self.logger.Error ( "unable to undo rename", "path", h.Path,
          "error", rerr )
      }
      return err
    }
    return nil
  })

} // end RenameItem


/*****************/
/* TRANSFERÈNCIA */
/*****************/

func (self *Session) engine( s *_Slot, cb *Callbacks ) *transfer.Engine {
  return transfer.NewEngine ( s.opened.Volume, transfer.Options{
    InjectDir: self.opts.InjectDir,
    BufferSize: self.opts.BufferSize,
    OnItem: cb.OnItem,
    Logger: self.logger,
  })
} // end engine


func newResults( paths []string ) []transfer.Result {
  ret := make ( []transfer.Result, len(paths) )
  for i,p := range paths { ret[i].Source= p }
  return ret
} // end newResults


func handlePaths( handles []*Handle ) []string {
  ret := make ( []string, len(handles) )
  for i,h := range handles { ret[i]= h.Path }
  return ret
} // end handlePaths


func fillErr( res []transfer.Result, err error ) {
  for i := range res {
    if res[i].Err == nil && len(res[i].Files) == 0 { res[i].Err= err }
  }
} // end fillErr


// Extrau els elements i els seus fitxers de dades dins de dest_dir.
func (self *Session) Extract(

  ctx      context.Context,
  dev      *Device,
  handles  []*Handle,
  dest_dir string,
  cb       Callbacks,

) []transfer.Result {

  items := make ( []transfer.Item, len(handles) )
  for i,h := range handles { items[i]= h.transferItem () }
  ret := newResults ( handlePaths ( handles ) )
  err := self.mutate ( ctx, dev, &cb, func(s *_Slot) error {
    ret= self.engine ( s, &cb ).Extract ( ctx, items, dest_dir )
    return nil
  })
  if err != nil { fillErr ( ret, err ) }

  return ret

} // end Extract


// Injecta fitxers locals en el dispositiu indicat.
func (self *Session) Inject(

  ctx   context.Context,
  dev   *Device,
  files []string,
  cb    Callbacks,

) []transfer.Result {

  ret := newResults ( files )
  err := self.mutate ( ctx, dev, &cb, func(s *_Slot) error {
    ret= self.engine ( s, &cb ).Inject ( ctx, files )
    return nil
  })
  if err != nil { fillErr ( ret, err ) }

  return ret

} // end Inject


func (self *Session) StartExtract(

  ctx      context.Context,
  dev      *Device,
  handles  []*Handle,
  dest_dir string,
  cb       Callbacks,

) *transfer.Task {
  return transfer.StartTask ( ctx, self.logger, "extract", len(handles),
    func(ctx context.Context) []transfer.Result {
      return self.Extract ( ctx, dev, handles, dest_dir, cb )
    })
} // end StartExtract


func (self *Session) StartInject(

  ctx   context.Context,
  dev   *Device,
  files []string,
  cb    Callbacks,

) *transfer.Task {
  return transfer.StartTask ( ctx, self.logger, "inject", len(files),
    func(ctx context.Context) []transfer.Result {
      return self.Inject ( ctx, dev, files, cb )
    })
} // end StartInject


// Allibera tots els dispositius. Espera les operacions en curs.
func (self *Session) Close() error {

  self.mu.Lock ()
  slots := self.slots
  self.slots= nil
  self.mu.Unlock ()
  var ret error
  for _,s := range slots {
    s.mu.Lock ()
    if err := s.opened.Close (); err != nil && ret == nil { ret= err }
    s.mu.Unlock ()
  }

  return ret

} // end Close
