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
 *  thumbnail.go - Miniatures de la capçalera.
 *
 */

package x360

import (
  "bytes"
  "image/png"
)


// Una miniatura sols es dona per bona si és un PNG que es pot
// descodificar sencer.
func validThumbnail( data []byte ) bool {
  if len(data) == 0 { return false }
  _,err:= png.Decode ( bytes.NewReader ( data ) )
  return err == nil
} // end validThumbnail


func (self *Header) Thumbnail() ([]byte,bool) {
  if !validThumbnail ( self.thumbnail ) { return nil,false }
  return self.thumbnail,true
} // end Thumbnail


func (self *Header) TitleThumbnail() ([]byte,bool) {
  if !validThumbnail ( self.title_thumbnail ) { return nil,false }
  return self.title_thumbnail,true
} // end TitleThumbnail
