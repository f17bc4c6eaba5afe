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

package device

import (
  "bytes"
  "context"
  "os"
  "path/filepath"
  "testing"

  "github.com/stretchr/testify/require"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
)


// Crea una imatge amb un volum FATX de length bytes a offset.
func makeImage( t *testing.T, name string, offset, length int64 ) string {

  t.Helper ()
  path := filepath.Join ( t.TempDir (), name )
  f,err := os.Create ( path )
  require.NoError ( t, err )
  defer f.Close ()
  require.NoError ( t, f.Truncate ( offset+length ) )
  region := utils.NewRegion ( f, offset, length )
  require.NoError ( t, fatx.Format ( region, length, 1, 0x1234 ) )

  return path

} // end makeImage


func TestEnumerate( t *testing.T ) {

  raw := makeImage ( t, "raw.img", 0, 1<<20 )
  mu := makeImage ( t, "mu.img", 0x7FF000, 1<<20 )
  junk := filepath.Join ( t.TempDir (), "junk.bin" )
  require.NoError ( t, os.WriteFile ( junk, bytes.Repeat ( []byte{0xAA}, 0x4000 ), 0o644 ) )

  handles := Enumerate ( context.Background (), Sources{
    Images: []string{raw,junk,mu,raw,"/does/not/exist"},
  }, nil )
  require.Len ( t, handles, 2 )

  require.Equal ( t, raw, handles[0].Path )
  require.Equal ( t, KindRemovable, handles[0].Kind () )
  require.Equal ( t, int64(0), handles[0].Offset )
  require.Equal ( t, int64(1<<20), handles[0].Length )
  require.Equal ( t, uint32(0x1234), handles[0].VolumeID )

  require.Equal ( t, mu, handles[1].Path )
  require.Equal ( t, "Memory Unit", handles[1].Layout.Name )
  require.Equal ( t, int64(0x7FF000), handles[1].Offset )
  require.Greater ( t, handles[1].Score, handles[0].Score )

} // end TestEnumerate


func TestEnumerateCancelled( t *testing.T ) {
  raw := makeImage ( t, "raw.img", 0, 1<<20 )
  ctx,cancel := context.WithCancel ( context.Background () )
  cancel ()
  require.Empty ( t, Enumerate ( ctx, Sources{Images: []string{raw}}, nil ) )
}


func TestOpenExclusive( t *testing.T ) {

  raw := makeImage ( t, "raw.img", 0, 1<<20 )
  h,err := Probe ( raw, nil )
  require.NoError ( t, err )

  w,err := h.Open ( true )
  require.NoError ( t, err )
  require.True ( t, w.Writable () )
  require.True ( t, w.Volume.Writable () )

  _,err= h.Open ( true )
  require.ErrorIs ( t, err, ErrBusy )

  // La lectura no queda bloquejada
  r,err := h.Open ( false )
  require.NoError ( t, err )
  require.False ( t, r.Volume.Writable () )
  require.NoError ( t, r.Close () )

  require.NoError ( t, w.Close () )
  require.NoError ( t, w.Close () )
  w,err= h.Open ( true )
  require.NoError ( t, err )
  require.NoError ( t, w.Close () )

} // end TestOpenExclusive


func TestReadOnlyProbeHasNoSideEffects( t *testing.T ) {

  raw := makeImage ( t, "raw.img", 0, 1<<20 )
  before,err := os.ReadFile ( raw )
  require.NoError ( t, err )
  h,err := Probe ( raw, nil )
  require.NoError ( t, err )
  r,err := h.Open ( false )
  require.NoError ( t, err )
  _,err= r.Volume.ReadDir ( "/" )
  require.NoError ( t, err )
  require.NoError ( t, r.Close () )
  after,err := os.ReadFile ( raw )
  require.NoError ( t, err )
  require.Equal ( t, before, after )

} // end TestReadOnlyProbeHasNoSideEffects
