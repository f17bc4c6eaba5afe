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
 *  mkimage.go - Implementa l'operació MKIMAGE. Crea una imatge amb un
 *               volum FATX buit.
 *
 */

package ops

import (
  "errors"
  "fmt"
  "os"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
)


type MkImageOptions struct {

  Size              int64  // Grandària del volum
  Offset            int64  // On comença el volum dins de la imatge
  SectorsPerCluster uint32
  VolumeID          uint32

}


/************/
/* OPERACIÓ */
/************/

func MkImage( env *Env, path string, opts MkImageOptions ) error {

  // Comprovacions
  if opts.Size <= 0 { return errors.New ( "image size must be positive" ) }
  if opts.Offset < 0 { return errors.New ( "negative volume offset" ) }
  if opts.SectorsPerCluster == 0 { opts.SectorsPerCluster= 32 }

  // Crea fitxer. No es sobreescriu res.
  f,err := os.OpenFile ( path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644 )
  if err != nil { return err }
  ok := false
  defer func() {
    f.Close ()
    if !ok { os.Remove ( path ) }
  }()
  if err := f.Truncate ( opts.Offset+opts.Size ); err != nil { return err }

  // Formata
  region := utils.NewRegion ( f, opts.Offset, opts.Size )
  err= fatx.Format ( region, opts.Size, opts.SectorsPerCluster, opts.VolumeID )
  if err != nil { return err }
  if err := f.Sync (); err != nil { return err }
  ok= true
  env.logger ().Info ( "image created", "path", path, "size", opts.Size,
    "offset", opts.Offset )
  fmt.Fprintf ( env.out (), "%s: %s FATX volume at %X\n", path,
    utils.NumBytesToStr ( uint64(opts.Size) ), opts.Offset )

  return nil

} // end MkImage
