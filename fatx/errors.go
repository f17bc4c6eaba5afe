/*
 * Copyright 2026 Adrià Giménez Pastor.
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
 *  errors.go - Errors del volum FATX.
 *
 */

package fatx

import (
  "errors"
  "fmt"
)


var (
  ErrNotFound     = errors.New ( "fatx: entry not found" )
  ErrNameConflict = errors.New ( "fatx: an entry with the same name exists" )
  ErrNoSpace      = errors.New ( "fatx: not enough free clusters" )
  ErrNameTooLong  = errors.New ( "fatx: name too long" )
  ErrInvalidName  = errors.New ( "fatx: invalid name" )
  ErrNotEmpty     = errors.New ( "fatx: directory not empty" )
  ErrIsDir        = errors.New ( "fatx: entry is a directory" )
  ErrNotDir       = errors.New ( "fatx: entry is not a directory" )
  ErrReadOnly     = errors.New ( "fatx: volume opened read-only" )
  ErrFileTooLarge = errors.New ( "fatx: file exceeds 4GiB" )
)


// Error en obrir un volum: signatura incorrecta, capçalera il·legible
// o geometria inconsistent.
type VolumeOpenError struct {
  Reason string
  Err    error
}


func (self *VolumeOpenError) Error() string {
  if self.Err != nil {
    return fmt.Sprintf ( "unable to open FATX volume: %s: %v",
      self.Reason, self.Err )
  }
  return "unable to open FATX volume: " + self.Reason
} // end Error


func (self *VolumeOpenError) Unwrap() error { return self.Err }
