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
 *  errors.go - Errors dels paquets.
 *
 */

package x360

import (
  "errors"
  "fmt"
)


var (
  ErrBadMagic           = errors.New ( "x360: bad magic" )
  ErrUnsupportedVersion = errors.New ( "x360: unsupported version" )
  ErrHashMismatch       = errors.New ( "x360: hash mismatch" )
  ErrReadOnly           = errors.New ( "x360: package source is read-only" )
  ErrInvalidName        = errors.New ( "x360: invalid entry name" )
)


// Error en analitzar un paquet. Err sol ser un dels errors de dalt o
// un error d'E/S.
type ParseError struct {
  Path string
  Err  error
}


func (self *ParseError) Error() string {
  if self.Path == "" {
    return fmt.Sprintf ( "unable to parse package: %v", self.Err )
  }
  return fmt.Sprintf ( "unable to parse package '%s': %v", self.Path, self.Err )
} // end Error


func (self *ParseError) Unwrap() error { return self.Err }


func parseError( path string, err error ) error {
  if err == nil { return nil }
  var perr *ParseError
  if errors.As ( err, &perr ) {
    if perr.Path == "" { perr.Path= path }
    return perr
  }
  return &ParseError{Path: path, Err: err}
} // end parseError
