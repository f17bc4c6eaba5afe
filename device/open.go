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
 *  open.go - Obertura exclusiva dels dispositius.
 *
 */

package device

import (
  "errors"
  "fmt"
  "os"
  "path/filepath"
  "sync"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
)


var ErrBusy = errors.New ( "device: device busy" )


/************/
/* REGISTRY */
/************/

// Dispositius oberts en escriptura per aquest procés.
var _registry = struct {
  mu    sync.Mutex
  owned map[string]bool
}{owned: make ( map[string]bool )}


func registryKey( path string, offset int64 ) string {
  abs,err:= filepath.Abs ( path )
  if err != nil { abs= path }
  return fmt.Sprintf ( "%s@%X", abs, offset )
} // end registryKey


func acquire( key string ) bool {
  _registry.mu.Lock ()
  defer _registry.mu.Unlock ()
  if _registry.owned[key] { return false }
  _registry.owned[key]= true
  return true
} // end acquire


func release( key string ) {
  _registry.mu.Lock ()
  defer _registry.mu.Unlock ()
  delete ( _registry.owned, key )
} // end release


/**********/
/* OPENED */
/**********/

type Opened struct {

  Handle *Handle
  File   *os.File
  Region *utils.Region
  Volume *fatx.Volume

  key    string // Buit si és de sols lectura
  once   sync.Once

}


func (self *Opened) Writable() bool { return self.key != "" }


func (self *Opened) Close() error {

  var err error
  self.once.Do ( func() {
    if self.key != "" {
      if tmp:= unlockFile ( self.File ); tmp != nil { err= tmp }
      release ( self.key )
    }
    if tmp:= self.File.Close (); tmp != nil && err == nil { err= tmp }
  })

  return err

} // end Close


// Obri el dispositiu. En escriptura el dispositiu queda reservat fins
// a Close i una segona obertura torna ErrBusy.
func (self *Handle) Open( writable bool ) (*Opened,error) {

  ret:= Opened{Handle: self}
  flags:= os.O_RDONLY
  if writable {
    ret.key= registryKey ( self.Path, self.Offset )
    if !acquire ( ret.key ) {
      return nil,fmt.Errorf ( "%w: %s", ErrBusy, self.Path )
    }
    flags= os.O_RDWR
  }
  fail:= func(err error) (*Opened,error) {
    if ret.File != nil { ret.File.Close () }
    if ret.key != "" { release ( ret.key ) }
    return nil,err
  }

  f,err:= os.OpenFile ( self.Path, flags, 0 )
  if err != nil { return fail ( err ) }
  ret.File= f
  if writable {
    if err:= lockFile ( f ); err != nil {
      return fail ( fmt.Errorf ( "%w: %s: %v", ErrBusy, self.Path, err ) )
    }
    ret.Region= utils.NewRegion ( f, self.Offset, self.Length )
  } else {
    ret.Region= utils.NewReadOnlyRegion ( f, self.Offset, self.Length )
  }
  vol,err:= fatx.Open ( ret.Region, self.Length, self.logger )
  if err != nil {
    if writable { unlockFile ( f ) }
    return fail ( err )
  }
  ret.Volume= vol

  return &ret,nil

} // end Open
