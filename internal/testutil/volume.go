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
 *  volume.go - Imatges FATX per a les proves.
 *
 */

package testutil

import (
  "bytes"
  "context"
  "fmt"
  "os"
  "path/filepath"
  "testing"

  "github.com/stretchr/testify/require"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
)


// Crea una imatge FATX formatada dins de t.TempDir. Torna el camí.
func NewImage( t *testing.T, length int64, spc uint32 ) string {

  t.Helper ()
  path:= filepath.Join ( t.TempDir (), "fatx.img" )
  f,err:= os.Create ( path )
  require.NoError ( t, err )
  defer f.Close ()
  require.NoError ( t, f.Truncate ( length ) )
  require.NoError ( t, fatx.Format ( f, length, spc, 0x360 ) )

  return path

} // end NewImage


// Obri per escriptura la imatge de path.
func OpenVolume( t *testing.T, path string ) *fatx.Volume {

  t.Helper ()
  f,err:= os.OpenFile ( path, os.O_RDWR, 0 )
  require.NoError ( t, err )
  t.Cleanup ( func() { f.Close () } )
  info,err:= f.Stat ()
  require.NoError ( t, err )
  vol,err:= fatx.Open ( utils.NewRegion ( f, 0, info.Size () ),
    info.Size (), nil )
  require.NoError ( t, err )

  return vol

} // end OpenVolume


// Escriu data en path creant els directoris que falten.
func WriteFile( t *testing.T, vol *fatx.Volume, path string, data []byte ) {

  t.Helper ()
  dir,_:= utils.SplitDirName ( path )
  require.NoError ( t, vol.MkdirAll ( dir ) )
  require.NoError ( t, vol.WriteNewFile ( context.Background (), path,
    bytes.NewReader ( data ) ) )

} // end WriteFile


func WriteSVOD( t *testing.T, vol *fatx.Volume, path string, svod *SVOD ) {
  t.Helper ()
  WriteFile ( t, vol, path, svod.Header )
  for i,d:= range svod.DataFiles {
    WriteFile ( t, vol, fmt.Sprintf ( "%s.data/Data%04d", path, i ), d )
  }
} // end WriteSVOD


// Escriu un SVOD en el sistema de fitxers local. Torna el camí de la
// capçalera.
func WriteLocalSVOD( t *testing.T, dir, name string, svod *SVOD ) string {

  t.Helper ()
  path:= filepath.Join ( dir, name )
  require.NoError ( t, os.WriteFile ( path, svod.Header, 0o644 ) )
  ddir:= path + ".data"
  require.NoError ( t, os.MkdirAll ( ddir, 0o755 ) )
  for i,d:= range svod.DataFiles {
    require.NoError ( t, os.WriteFile (
      filepath.Join ( ddir, fmt.Sprintf ( "Data%04d", i ) ), d, 0o644 ) )
  }

  return path

} // end WriteLocalSVOD
