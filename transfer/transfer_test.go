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

package transfer

import (
  "context"
  "io/fs"
  "os"
  "path/filepath"
  "sort"
  "testing"

  "github.com/stretchr/testify/require"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/internal/testutil"
  "github.com/adriagipas/xcontent/x360"
)


const _DIR = "/Content/0000000000000000/4D5307E6/00007000"


func newVolume( t *testing.T ) *fatx.Volume {
  t.Helper ()
  return testutil.OpenVolume ( t, testutil.NewImage ( t, 4<<20, 8 ) )
}


// Fitxers regulars dins de dir, relatius.
func localFiles( t *testing.T, dir string ) []string {
  t.Helper ()
  ret := []string{}
  err := filepath.WalkDir ( dir, func(p string, d fs.DirEntry, err error) error {
    if err != nil { return err }
    if !d.IsDir () {
      rel,_ := filepath.Rel ( dir, p )
      ret= append ( ret, filepath.ToSlash ( rel ) )
    }
    return nil
  })
  require.NoError ( t, err )
  sort.Strings ( ret )
  return ret
}


func TestExtractPartialFailure( t *testing.T ) {

  vol := newVolume ( t )
  testutil.WriteFile ( t, vol, _DIR+"/A", []byte("first") )
  testutil.WriteFile ( t, vol, _DIR+"/C", []byte("third") )

  var progress []bool
  var done []int
  eng := NewEngine ( vol, Options{
    Progress: func(finished bool) { progress= append ( progress, finished ) },
    OnItem: func(i, n int, res Result) {
      require.Equal ( t, 3, n )
      done= append ( done, i )
    },
  })
  dest := t.TempDir ()
  res := eng.Extract ( context.Background (), []Item{
    {Path: _DIR+"/A"},
    {Path: _DIR+"/B"},
    {Path: _DIR+"/C"},
  }, dest )

  require.Len ( t, res, 3 )
  require.NoError ( t, res[0].Err )
  require.ErrorIs ( t, res[1].Err, fatx.ErrNotFound )
  require.Empty ( t, res[1].Files )
  require.NoError ( t, res[2].Err )
  require.Equal ( t, filepath.Join ( dest, "C" ), res[2].Target )
  require.Equal ( t, []string{"A","C"}, localFiles ( t, dest ) )
  data,err := os.ReadFile ( filepath.Join ( dest, "A" ) )
  require.NoError ( t, err )
  require.Equal ( t, "first", string(data) )
  require.Equal ( t, []bool{false,true}, progress )
  require.Equal ( t, []int{0,1,2}, done )

} // end TestExtractPartialFailure


func TestExtractAuxiliaryFiles( t *testing.T ) {

  vol := newVolume ( t )
  testutil.WriteFile ( t, vol, _DIR+"/GAME", []byte("header") )
  testutil.WriteFile ( t, vol, _DIR+"/GAME.data/Data0000", []byte("d0") )
  testutil.WriteFile ( t, vol, _DIR+"/GAME.data/Data0001", []byte("d1") )

  dest := t.TempDir ()
  res := NewEngine ( vol, Options{} ).Extract ( context.Background (), []Item{{
    Path: _DIR+"/GAME",
    AuxPaths: []string{_DIR+"/GAME.data/Data0000",_DIR+"/GAME.data/Data0001"},
  }}, dest )
  require.NoError ( t, res[0].Err )
  require.Len ( t, res[0].Files, 3 )
  require.Equal ( t,
    []string{"GAME","GAME.data/Data0000","GAME.data/Data0001"},
    localFiles ( t, dest ) )
  data,err := os.ReadFile ( filepath.Join ( dest, "GAME.data", "Data0001" ) )
  require.NoError ( t, err )
  require.Equal ( t, "d1", string(data) )

} // end TestExtractAuxiliaryFiles


func TestExtractMissingAuxRemovesPrimary( t *testing.T ) {

  vol := newVolume ( t )
  testutil.WriteFile ( t, vol, _DIR+"/GAME", []byte("header") )
  dest := t.TempDir ()
  res := NewEngine ( vol, Options{} ).Extract ( context.Background (), []Item{{
    Path: _DIR+"/GAME",
    AuxPaths: []string{_DIR+"/GAME.data/Data0000"},
  }}, dest )
  require.ErrorIs ( t, res[0].Err, fatx.ErrNotFound )
  require.Empty ( t, localFiles ( t, dest ) )

} // end TestExtractMissingAuxRemovesPrimary


// Dos elements amb el mateix nom no es poden extraure al mateix lloc
// ni sobreescriure un fitxer local.
func TestExtractNoOverwrite( t *testing.T ) {

  const shared = "/Content/0000000000000000"
  vol := newVolume ( t )
  testutil.WriteFile ( t, vol, shared+"/11111111/00000002/ABC", []byte("first") )
  testutil.WriteFile ( t, vol, shared+"/22222222/00000002/ABC", []byte("second") )
  testutil.WriteFile ( t, vol, _DIR+"/LOCAL", []byte("device") )

  dest := t.TempDir ()
  require.NoError ( t, os.WriteFile ( filepath.Join ( dest, "LOCAL" ),
    []byte("local"), 0o644 ) )
  res := NewEngine ( vol, Options{} ).Extract ( context.Background (), []Item{
    {Path: shared+"/11111111/00000002/ABC"},
    {Path: shared+"/22222222/00000002/ABC"},
    {Path: _DIR+"/LOCAL"},
  }, dest )

  require.NoError ( t, res[0].Err )
  require.ErrorIs ( t, res[1].Err, fs.ErrExist )
  require.Empty ( t, res[1].Files )
  require.ErrorIs ( t, res[2].Err, fs.ErrExist )
  require.Equal ( t, []string{"ABC","LOCAL"}, localFiles ( t, dest ) )
  data,err := os.ReadFile ( filepath.Join ( dest, "ABC" ) )
  require.NoError ( t, err )
  require.Equal ( t, "first", string(data) )
  data,err= os.ReadFile ( filepath.Join ( dest, "LOCAL" ) )
  require.NoError ( t, err )
  require.Equal ( t, "local", string(data) )

} // end TestExtractNoOverwrite


func TestInjectRouting( t *testing.T ) {

  vol := newVolume ( t )
  local := t.TempDir ()

  profile := [8]byte{0xE0,0,0,0,0x12,0x34,0x56,0x78}
  save := filepath.Join ( local, "save.pkg" )
  require.NoError ( t, os.WriteFile ( save, testutil.BuildSTFS (
    testutil.STFSOptions{HeaderOptions: testutil.HeaderOptions{
      ContentType: uint32(x360.CONTENT_TYPE_SAVED_GAME),
      TitleID: 0x4D5307E6,
      ProfileID: profile,
      DisplayName: "Save",
    }}, []testutil.File{{Path: "slot1", Data: []byte("progress")}} ), 0o644 ) )
  game := testutil.WriteLocalSVOD ( t, local, "GAME", testutil.BuildSVOD (
    testutil.SVODOptions{HeaderOptions: testutil.HeaderOptions{
      ContentType: uint32(x360.CONTENT_TYPE_GAME_ON_DEMAND),
      TitleID: 0x41560817,
      DisplayName: "Game",
    }}, []testutil.File{{Path: "default.xex", Data: []byte("xex")}} ) )
  plain := filepath.Join ( local, "notes.txt" )
  require.NoError ( t, os.WriteFile ( plain, []byte("hello"), 0o644 ) )

  eng := NewEngine ( vol, Options{InjectDir: "/Inject"} )
  res := eng.Inject ( context.Background (),
    []string{save,game,plain,filepath.Join ( local, "missing" )} )
  require.Len ( t, res, 4 )

  require.NoError ( t, res[0].Err )
  require.Equal ( t, "/Content/E000000012345678/4D5307E6/00000001/save.pkg",
    res[0].Target )
  require.NoError ( t, res[1].Err )
  require.Equal ( t, []string{
    "/Content/0000000000000000/41560817/00007000/GAME",
    "/Content/0000000000000000/41560817/00007000/GAME.data/Data0000",
  }, res[1].Files )
  require.NoError ( t, res[2].Err )
  require.Equal ( t, "/Inject/notes.txt", res[2].Target )
  require.ErrorIs ( t, res[3].Err, fs.ErrNotExist )

  // Es pot tornar a llegir
  pkg,err := x360.OpenPackage ( vol, res[1].Target, x360.OpenOptions{} )
  require.NoError ( t, err )
  listing,err := pkg.SVOD.GetFileListing ()
  require.NoError ( t, err )
  e,ok := listing.Find ( "default.xex" )
  require.True ( t, ok )
  data,err := pkg.SVOD.ReadFile ( e )
  require.NoError ( t, err )
  require.Equal ( t, "xex", string(data) )
  data,err= vol.ReadFile ( "/Inject/notes.txt" )
  require.NoError ( t, err )
  require.Equal ( t, "hello", string(data) )

} // end TestInjectRouting


func TestInjectConflictAndNoSpace( t *testing.T ) {

  vol := testutil.OpenVolume ( t, testutil.NewImage ( t, 1<<20, 1 ) )
  local := t.TempDir ()
  small := filepath.Join ( local, "small.bin" )
  require.NoError ( t, os.WriteFile ( small, []byte("small"), 0o644 ) )
  big := filepath.Join ( local, "big.bin" )
  require.NoError ( t, os.WriteFile ( big, make ( []byte, 2<<20 ), 0o644 ) )

  eng := NewEngine ( vol, Options{InjectDir: "/Inject"} )
  res := eng.Inject ( context.Background (), []string{small,small,big} )
  require.NoError ( t, res[0].Err )
  require.ErrorIs ( t, res[1].Err, fatx.ErrNameConflict )
  require.ErrorIs ( t, res[2].Err, fatx.ErrNoSpace )
  _,err := vol.Stat ( "/Inject/big.bin" )
  require.ErrorIs ( t, err, fatx.ErrNotFound )
  entries,err := vol.ReadDir ( "/Inject" )
  require.NoError ( t, err )
  require.Len ( t, entries, 1 )

} // end TestInjectConflictAndNoSpace


// Un inject que falla no deixa directoris nous ni clusters ocupats.
func TestInjectRollback( t *testing.T ) {

  // Falten els fitxers de dades
  vol := newVolume ( t )
  free := vol.FreeSpace ()
  local := t.TempDir ()
  game := testutil.WriteLocalSVOD ( t, local, "GAME", testutil.BuildSVOD (
    testutil.SVODOptions{HeaderOptions: testutil.HeaderOptions{
      ContentType: uint32(x360.CONTENT_TYPE_GAME_ON_DEMAND),
      TitleID: 0x41560817,
    }}, []testutil.File{{Path: "default.xex", Data: []byte("xex")}} ) )
  require.NoError ( t, os.Remove ( filepath.Join ( local, "GAME.data",
    "Data0000" ) ) )
  res := NewEngine ( vol, Options{} ).Inject ( context.Background (),
    []string{game} )
  require.Error ( t, res[0].Err )
  require.Contains ( t, res[0].Err.Error (), "Data0000" )
  _,err := vol.Stat ( "/Content" )
  require.ErrorIs ( t, err, fatx.ErrNotFound )
  require.Equal ( t, free, vol.FreeSpace () )

  // Falla després de crear els directoris
  vol= testutil.OpenVolume ( t, testutil.NewImage ( t, 1<<20, 1 ) )
  free= vol.FreeSpace ()
  big := filepath.Join ( local, "big.bin" )
  require.NoError ( t, os.WriteFile ( big, make ( []byte, 2<<20 ), 0o644 ) )
  res= NewEngine ( vol, Options{InjectDir: "/Inject/Files"} ).Inject (
    context.Background (), []string{big} )
  require.ErrorIs ( t, res[0].Err, fatx.ErrNoSpace )
  require.Empty ( t, res[0].Files )
  _,err= vol.Stat ( "/Inject" )
  require.ErrorIs ( t, err, fatx.ErrNotFound )
  require.Equal ( t, free, vol.FreeSpace () )

} // end TestInjectRollback


func TestTaskCancelled( t *testing.T ) {

  vol := newVolume ( t )
  testutil.WriteFile ( t, vol, _DIR+"/A", []byte("a") )
  ctx,cancel := context.WithCancel ( context.Background () )
  cancel ()
  task := NewEngine ( vol, Options{} ).StartExtract ( ctx,
    []Item{{Path: _DIR+"/A"},{Path: _DIR+"/A"}}, t.TempDir () )
  res := task.Wait ()
  require.Len ( t, res, 2 )
  for _,r := range res {
    require.ErrorIs ( t, r.Err, context.Canceled )
  }

} // end TestTaskCancelled


func TestTaskInject( t *testing.T ) {

  vol := newVolume ( t )
  local := filepath.Join ( t.TempDir (), "file.bin" )
  require.NoError ( t, os.WriteFile ( local, []byte("data"), 0o644 ) )
  task := NewEngine ( vol, Options{} ).StartInject ( context.Background (),
    []string{local} )
  <-task.Done ()
  res := task.Wait ()
  require.NoError ( t, res[0].Err )
  require.NotEqual ( t, "", task.ID.String () )
  data,err := vol.ReadFile ( res[0].Target )
  require.NoError ( t, err )
  require.Equal ( t, "data", string(data) )

} // end TestTaskInject
