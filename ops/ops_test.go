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

package ops

import (
  "bytes"
  "context"
  "os"
  "path/filepath"
  "testing"
  "time"

  "github.com/stretchr/testify/require"

  "github.com/adriagipas/xcontent/config"
  "github.com/adriagipas/xcontent/internal/testutil"
  "github.com/adriagipas/xcontent/x360"
)


const _SAVE = "/Content/E000000012345678/4D5307E6/00000001/SAVE"


func save( name string ) []byte {
  return testutil.BuildSTFS ( testutil.STFSOptions{
    HeaderOptions: testutil.HeaderOptions{
      ContentType: uint32(x360.CONTENT_TYPE_SAVED_GAME),
      TitleID: 0x4D5307E6,
      ProfileID: [8]byte{0xE0,0x00,0x00,0x00,0x12,0x34,0x56,0x78},
      DisplayName: name,
      TitleName: "Halo 3",
      Thumbnail: testutil.PNG ( 2, 2 ),
    },
  }, []testutil.File{
    {Path: "data", Data: []byte(name)},
    {Path: "dir/more", Data: []byte("more data")},
  })
}


func newEnv( t *testing.T, img string ) (*Env,*bytes.Buffer) {
  cfg := config.Default ()
  cfg.Detection.Images= []string{img}
  out := &bytes.Buffer{}
  return &Env{Cfg: cfg, Out: out},out
}


// Imatge amb una partida guardada.
func newImage( t *testing.T ) string {
  img := testutil.NewImage ( t, 4*1024*1024, 8 )
  vol := testutil.OpenVolume ( t, img )
  testutil.WriteFile ( t, vol, _SAVE, save ( "Campaign" ) )
  return img
}


func TestMkImage( t *testing.T ) {

  path := filepath.Join ( t.TempDir (), "mu.img" )
  env,out := newEnv ( t, path )
  opts := MkImageOptions{
    Size: 4*1024*1024,
    SectorsPerCluster: 8,
    VolumeID: 0x1234,
  }
  require.NoError ( t, MkImage ( env, path, opts ) )
  require.Contains ( t, out.String (), "FATX volume" )

  // No es sobreescriu
  require.Error ( t, MkImage ( env, path, opts ) )

  out.Reset ()
  require.NoError ( t, Devices ( context.Background (), env ) )
  require.Contains ( t, out.String (), "FATX Image" )

  // Volum buit
  out.Reset ()
  require.NoError ( t, List ( context.Background (), env, []string{"0=/"} ) )
  require.Empty ( t, out.String () )

} // end TestMkImage


func TestMkImageOffset( t *testing.T ) {

  path := filepath.Join ( t.TempDir (), "off.img" )
  env,_ := newEnv ( t, path )
  err := MkImage ( env, path, MkImageOptions{
    Size: 4*1024*1024,
    Offset: 0x1000,
    SectorsPerCluster: 8,
  })
  require.NoError ( t, err )
  info,err := os.Stat ( path )
  require.NoError ( t, err )
  require.Equal ( t, int64(4*1024*1024+0x1000), info.Size () )

  require.Error ( t, MkImage ( env, filepath.Join ( t.TempDir (), "x" ),
    MkImageOptions{} ) )

} // end TestMkImageOffset


func TestShow( t *testing.T ) {

  ctx := context.Background ()
  env,out := newEnv ( t, newImage ( t ) )

  require.NoError ( t, Show ( ctx, env, nil ) )
  require.Contains ( t, out.String (), "Unknown Profile" )
  require.Contains ( t, out.String (), "Halo 3" )
  require.Contains ( t, out.String (), "Campaign" )

  out.Reset ()
  require.NoError ( t, Show ( ctx, env, []string{"0="+_SAVE} ) )
  require.Contains ( t, out.String (), "4D5307E6" )
  require.Contains ( t, out.String (), "Files: 2" )

  require.Error ( t, Show ( ctx, env, []string{"0=/Content"} ) )
  require.Error ( t, Show ( ctx, env, []string{"3=/"} ) )

} // end TestShow


func TestListAndCat( t *testing.T ) {

  ctx := context.Background ()
  env,out := newEnv ( t, newImage ( t ) )

  // Volum
  require.NoError ( t, List ( ctx, env,
    []string{"0=/Content/E000000012345678/4D5307E6/00000001"} ) )
  require.Contains ( t, out.String (), "SAVE" )

  // Paquet
  out.Reset ()
  require.NoError ( t, List ( ctx, env, []string{"0="+_SAVE+"::/"} ) )
  require.Contains ( t, out.String (), "data" )
  require.Contains ( t, out.String (), "dir" )
  out.Reset ()
  require.NoError ( t, List ( ctx, env, []string{"0="+_SAVE+"::/dir"} ) )
  require.Contains ( t, out.String (), "more" )
  require.Error ( t, List ( ctx, env, []string{"0="+_SAVE+"::/nope"} ) )

  // Contingut
  out.Reset ()
  require.NoError ( t, Cat ( ctx, env, []string{"0="+_SAVE+"::/dir/more"},
    CAT_DATA ) )
  require.Equal ( t, "more data", out.String () )

  out.Reset ()
  require.NoError ( t, Cat ( ctx, env, []string{"0="+_SAVE}, CAT_THUMBNAIL ) )
  require.Equal ( t, testutil.PNG ( 2, 2 ), out.Bytes () )
  require.Error ( t, Cat ( ctx, env, []string{"0="+_SAVE},
    CAT_TITLE_THUMBNAIL ) )

  out.Reset ()
  require.NoError ( t, Cat ( ctx, env, []string{"0="+_SAVE}, CAT_DATA ) )
  require.Equal ( t, save ( "Campaign" ), out.Bytes () )

  require.Error ( t, Cat ( ctx, env, []string{"0=/Content/"}, CAT_DATA ) )

} // end TestListAndCat


func TestMkdirRemove( t *testing.T ) {

  ctx := context.Background ()
  env,out := newEnv ( t, newImage ( t ) )

  require.NoError ( t, Mkdir ( ctx, env, []string{"0=/a/b/c"} ) )
  require.NoError ( t, List ( ctx, env, []string{"0=/a/b"} ) )
  require.Contains ( t, out.String (), "c" )

  // No buit
  require.Error ( t, Remove ( ctx, env, []string{"0=/a"}, false ) )
  require.NoError ( t, Remove ( ctx, env, []string{"0=/a"}, true ) )
  require.Error ( t, List ( ctx, env, []string{"0=/a"} ) )
  require.Error ( t, Remove ( ctx, env, []string{"0=/"}, true ) )

  // Paquet
  require.NoError ( t, Remove ( ctx, env, []string{"0="+_SAVE}, false ) )
  out.Reset ()
  require.NoError ( t, Show ( ctx, env, nil ) )
  require.NotContains ( t, out.String (), "Campaign" )

} // end TestMkdirRemove


func TestRename( t *testing.T ) {

  ctx := context.Background ()
  env,out := newEnv ( t, newImage ( t ) )

  require.NoError ( t, Rename ( ctx, env, "0="+_SAVE, "SAVE2" ) )
  require.NoError ( t, List ( ctx, env,
    []string{"0=/Content/E000000012345678/4D5307E6/00000001"} ) )
  require.Contains ( t, out.String (), "SAVE2" )

  require.NoError ( t, Mkdir ( ctx, env, []string{"0=/dir"} ) )
  require.NoError ( t, Rename ( ctx, env, "0=/dir", "other" ) )
  require.Error ( t, Rename ( ctx, env, "0=/other", "bad/name" ) )

  out.Reset ()
  require.NoError ( t, RenameDevice ( ctx, env, "0=", "Memory Card" ) )
  require.Contains ( t, out.String (), "Memory Card" )
  require.Error ( t, RenameDevice ( ctx, env, "0=", "  " ) )

} // end TestRename


func TestInjectExtract( t *testing.T ) {

  ctx := context.Background ()
  env,out := newEnv ( t, testutil.NewImage ( t, 4*1024*1024, 8 ) )

  // Injecta
  local := t.TempDir ()
  src := filepath.Join ( local, "PARTIDA" )
  require.NoError ( t, os.WriteFile ( src, save ( "Act 2" ), 0o644 ) )
  require.NoError ( t, Inject ( ctx, env, "0=", []string{src} ) )
  require.Error ( t, Inject ( ctx, env, "",
    []string{filepath.Join ( local, "missing" )} ) )

  path := "/Content/E000000012345678/4D5307E6/00000001/PARTIDA"
  require.NoError ( t, Show ( ctx, env, []string{"0="+path} ) )
  require.Contains ( t, out.String (), "Act 2" )

  // Extrau
  dest := filepath.Join ( t.TempDir (), "out" )
  require.NoError ( t, Extract ( ctx, env, []string{"0="+path}, dest ) )
  data,err := os.ReadFile ( filepath.Join ( dest, "PARTIDA" ) )
  require.NoError ( t, err )
  require.Equal ( t, save ( "Act 2" ), data )

  // Un element que no existeix fa fallar el lot
  err= Extract ( ctx, env, []string{"0="+path, "0=/nope"},
    filepath.Join ( t.TempDir (), "out2" ) )
  require.Error ( t, err )
  require.Contains ( t, err.Error (), "1 of 2" )

  // No es sobreescriu el que ja hi ha
  err= Extract ( ctx, env, []string{"0="+path}, dest )
  require.Error ( t, err )
  require.Contains ( t, err.Error (), "1 of 1" )

} // end TestInjectExtract


func TestSetEntry( t *testing.T ) {

  ctx := context.Background ()
  const game = "/Content/0000000000000000/4D5307E6/00007000/GAME"
  img := newImage ( t )
  vol := testutil.OpenVolume ( t, img )
  testutil.WriteSVOD ( t, vol, game, testutil.BuildSVOD (
    testutil.SVODOptions{
      HeaderOptions: testutil.HeaderOptions{
        ContentType: uint32(x360.CONTENT_TYPE_GAME_ON_DEMAND),
        TitleID: 0x4D5307E6,
        DisplayName: "Game",
      },
    }, []testutil.File{{Path: "default.xex", Data: []byte("xex")}} ) )
  env,out := newEnv ( t, img )

  // Entrada del volum
  mod := time.Date ( 2013, time.June, 1, 12, 0, 0, 0, time.Local )
  require.NoError ( t, SetEntry ( ctx, env, "0="+_SAVE, EntryEdit{
    Attributes: []string{"Hidden","archive"},
    Modified: mod,
  }))
  require.NoError ( t, List ( ctx, env, []string{"0="+_SAVE} ) )
  require.Contains ( t, out.String (), "h-a" )
  require.Contains ( t, out.String (), "01/06/2013  12:00:00" )
  require.Error ( t, SetEntry ( ctx, env, "0="+_SAVE, EntryEdit{
    Attributes: []string{"device"},
  }))
  require.Error ( t, SetEntry ( ctx, env, "0="+_SAVE, EntryEdit{
    Name: "OTHER",
  }))

  // Fitxer dins del paquet SVOD
  require.NoError ( t, SetEntry ( ctx, env, "0="+game+"::/default.xex",
    EntryEdit{Name: "default.bin", Attributes: []string{"ReadOnly","Normal"}} ) )
  out.Reset ()
  require.NoError ( t, List ( ctx, env, []string{"0="+game+"::/"} ) )
  require.Contains ( t, out.String (), "default.bin" )
  require.Contains ( t, out.String (), "[ReadOnly,Normal]" )
  out.Reset ()
  require.NoError ( t, Cat ( ctx, env, []string{"0="+game+"::/default.bin"},
    CAT_DATA ) )
  require.Equal ( t, "xex", out.String () )

  require.Error ( t, SetEntry ( ctx, env, "0="+game+"::/default.bin",
    EntryEdit{Modified: mod} ) )
  require.Error ( t, SetEntry ( ctx, env, "0="+_SAVE+"::/data",
    EntryEdit{Name: "atad"} ) )

} // end TestSetEntry
