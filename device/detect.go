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
 *  detect.go - Detecció de dispositius FATX (discs durs, memòries
 *              USB i imatges).
 *
 */

package device

import (
  "context"
  "fmt"
  "io"
  "os"
  "path/filepath"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
)


/*********/
/* TIPUS */
/*********/

type Kind int

const (
  KindHardDrive Kind = iota
  KindRemovable
)


func (self Kind) String() string {
  switch self {
  case KindHardDrive:
    return "Hard Drive"
  case KindRemovable:
    return "Removable Drive"
  default:
    return fmt.Sprintf ( "Unknown (%d)", int(self) )
  }
} // end String


// Posició coneguda d'una partició de dades FATX.
type Layout struct {
  Kind   Kind
  Offset int64
  Name   string
}


var LAYOUTS = []Layout{
  {KindHardDrive, 0x130EB0000, "Xbox 360 Hard Drive"},
  {KindRemovable, 0x7FF000, "Memory Unit"},
  {KindRemovable, 0, "FATX Image"},
}


// On buscar dispositius.
type Sources struct {

  Images           []string
  ScanBlockDevices bool
  BlockDeviceGlob  string // Per defecte /dev/sd?

}


/**********/
/* HANDLE */
/**********/

// Dispositiu detectat. No manté res obert.
type Handle struct {

  Path     string
  Layout   Layout
  Offset   int64
  Length   int64
  VolumeID uint32
  Score    int

  logger   utils.Logger

}


func (self *Handle) Kind() Kind { return self.Layout.Kind }


func (self *Handle) String() string {
  return fmt.Sprintf ( "%s (%s, %s at %X)", self.Path, self.Layout.Name,
    utils.NumBytesToStr ( uint64(self.Length) ), self.Offset )
} // end String


/**********/
/* DETECT */
/**********/

// Puntua una disposició. -1 vol dir que no és vàlida.
func score( f io.ReaderAt, size int64, layout Layout ) (int,*fatx.HeaderInfo) {

  if size <= layout.Offset { return -1,nil }
  length:= size - layout.Offset
  region:= utils.NewReadOnlyRegion ( f, layout.Offset, length )
  info,err:= fatx.Probe ( region, length )
  if err != nil { return -1,nil }

  // Signatura i geometria
  ret:= 2

  // Arrel en el primer cluster
  if info.RootCluster == 1 { ret++ }

  // Les particions no comencen a 0 en els dispositius reals
  if layout.Offset > 0 { ret++ }

  // Clusters de 16K en disc dur
  if layout.Kind == KindHardDrive && info.ClusterSize == 0x4000 { ret++ }

  return ret,info

} // end score


func fileSize( f *os.File ) (int64,error) {

  info,err:= f.Stat ()
  if err != nil { return -1,err }
  if info.Mode ().IsRegular () { return info.Size (),nil }

  // Dispositius de blocs
  size,err:= f.Seek ( 0, io.SeekEnd )
  if err != nil { return -1,err }
  if _,err:= f.Seek ( 0, io.SeekStart ); err != nil { return -1,err }

  return size,nil

} // end fileSize


// Prova totes les disposicions d'un fitxer. Guanya la que té més
// punts.
func Probe( path string, logger utils.Logger ) (*Handle,error) {

  logger= utils.OrNop ( logger )
  f,err:= os.Open ( path )
  if err != nil { return nil,err }
  defer f.Close ()
  size,err:= fileSize ( f )
  if err != nil { return nil,err }

  var ret *Handle
  points:= -1
  for _,l:= range LAYOUTS {
    if tmp,info:= score ( f, size, l ); tmp > points {
      points= tmp
      ret= &Handle{
        Path: path,
        Layout: l,
        Offset: l.Offset,
        Length: size - l.Offset,
        VolumeID: info.VolumeID,
        Score: tmp,
        logger: logger,
      }
    }
  }
  if ret == nil {
    return nil,fmt.Errorf ( "'%s' does not contain a FATX volume", path )
  }

  return ret,nil

} // end Probe


// Busca dispositius. Els que fallen es descarten.
func Enumerate( ctx context.Context, src Sources, logger utils.Logger ) []*Handle {

  logger= utils.OrNop ( logger )
  paths:= append ( []string{}, src.Images... )
  if src.ScanBlockDevices {
    glob:= src.BlockDeviceGlob
    if glob == "" { glob= "/dev/sd?" }
    if tmp,err:= filepath.Glob ( glob ); err != nil {
      logger.Warn ( "invalid block device glob", "glob", glob, "err", err )
    } else {
      paths= append ( paths, tmp... )
    }
  }

  ret:= make ( []*Handle, 0, len(paths) )
  seen:= make ( map[string]bool )
  for _,p:= range paths {
    if ctx.Err () != nil { break }
    abs,err:= filepath.Abs ( p )
    if err != nil { abs= p }
    if seen[abs] { continue }
    seen[abs]= true
    h,err:= Probe ( p, logger )
    if err != nil {
      logger.Debug ( "device skipped", "path", p, "err", err )
      continue
    }
    logger.Info ( "device detected", "path", p,
      "layout", h.Layout.Name, "volume_id", fmt.Sprintf ( "%08X", h.VolumeID ) )
    ret= append ( ret, h )
  }

  return ret

} // end Enumerate
