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

package config

import (
  "bytes"
  "path/filepath"
  "strings"
  "testing"

  "github.com/stretchr/testify/require"
)


func TestReadPartial( t *testing.T ) {

  cfg,err := Read ( strings.NewReader ( `
log_level = "debug"

[detection]
images = ["/tmp/hdd.img", "/tmp/usb.img"]

[catalog]
verify_hashes = true
` ) )
  require.NoError ( t, err )
  require.Equal ( t, "debug", cfg.LogLevel )
  require.Equal ( t, []string{"/tmp/hdd.img","/tmp/usb.img"}, cfg.Detection.Images )
  require.True ( t, cfg.Catalog.VerifyHashes )
  // Valors per defecte
  require.Equal ( t, "/Content", cfg.Catalog.ContentDir )
  require.Equal ( t, 0x10000, cfg.Transfer.BufferSize )
  require.Equal ( t, "/dev/sd?", cfg.Detection.BlockDeviceGlob )

  src := cfg.Sources ()
  require.Equal ( t, cfg.Detection.Images, src.Images )

} // end TestReadPartial


func TestReadInvalid( t *testing.T ) {

  _,err := Read ( strings.NewReader ( `log_level = "loud"` ) )
  require.Error ( t, err )
  _,err= Read ( strings.NewReader ( "[transfer]\nbuffer_size = 0\n" ) )
  require.Error ( t, err )
  _,err= Read ( strings.NewReader ( "this is = = not toml" ) )
  require.Error ( t, err )

} // end TestReadInvalid


func TestWriteRoundTrip( t *testing.T ) {

  cfg := Default ()
  cfg.Detection.Images= []string{"a.img"}
  cfg.Transfer.InjectDir= "/Content/Inject"
  var buf bytes.Buffer
  require.NoError ( t, Write ( &buf, cfg ) )
  got,err := Read ( &buf )
  require.NoError ( t, err )
  require.Equal ( t, cfg, got )

} // end TestWriteRoundTrip


func TestReadFromFile( t *testing.T ) {

  dir := t.TempDir ()
  cfg,err := ReadFromFile ( filepath.Join ( dir, "missing.toml" ) )
  require.NoError ( t, err )
  require.Equal ( t, Default (), cfg )

  path := filepath.Join ( dir, "sub", "config.toml" )
  cfg.LogLevel= "warn"
  require.NoError ( t, WriteToFile ( path, cfg ) )
  got,err := ReadFromFile ( path )
  require.NoError ( t, err )
  require.Equal ( t, "warn", got.LogLevel )

} // end TestReadFromFile
