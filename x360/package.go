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
 *  package.go - Paquet XContent, STFS o SVOD.
 *
 */

package x360

import (
  "github.com/adriagipas/xcontent/utils"
)


/***********/
/* PACKAGE */
/***********/

// Sols un dels dos punters és distint de nil, el que indica Kind.
type Package struct {

  Kind FileSystem
  STFS *STFS
  SVOD *SVOD

}


func (self *Package) Header() *Header {
  switch self.Kind {
  case FS_STFS:
    return self.STFS.Header ()
  default:
    return self.SVOD.Header ()
  }
} // end Header


// Obri un paquet llegint sols la capçalera. El tipus es decideix amb
// el descriptor de 0x3A9.
func OpenPackage(

  src  utils.FileSource,
  path string,
  opts OpenOptions,

) (*Package,error) {

  f,err:= src.OpenFile ( path )
  if err != nil { return nil,parseError ( path, err ) }
  defer f.Close ()
  header,err:= readHeader ( f, f.Size () )
  if err != nil { return nil,parseError ( path, err ) }
  if opts.Verify {
    if err:= header.verify ( f, f.Size () ); err != nil {
      return nil,parseError ( path, err )
    }
  }

  ret:= Package{Kind: header.DescriptorType}
  switch header.DescriptorType {
  case FS_STFS:
    ret.STFS= newSTFSFromSource ( src, path, header, opts )
  default:
    ret.SVOD= newSVOD ( src, path, header, opts )
  }

  return &ret,nil

} // end OpenPackage
