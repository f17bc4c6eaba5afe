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

package fatx

import (
  "bytes"
  "context"
  "errors"
  "io"
  "os"
  "path/filepath"
  "strings"
  "testing"
  "time"

  "github.com/stretchr/testify/require"

  "github.com/adriagipas/xcontent/utils"
)


func newTestImage( t *testing.T, length int64, spc uint32 ) *os.File {

  t.Helper ()
  f,err := os.Create ( filepath.Join ( t.TempDir (), "fatx.img" ) )
  require.NoError ( t, err )
  t.Cleanup ( func() { f.Close () } )
  require.NoError ( t, f.Truncate ( length ) )
  require.NoError ( t, Format ( f, length, spc, 0xCAFEBABE ) )

  return f

} // end newTestImage


func newTestVolume( t *testing.T, length int64, spc uint32 ) (*Volume,*os.File) {

  t.Helper ()
  f := newTestImage ( t, length, spc )
  vol,err := Open ( f, length, nil )
  require.NoError ( t, err )

  return vol,f

} // end newTestVolume


func pattern( n int ) []byte {
  ret := make ( []byte, n )
  for i := range ret { ret[i]= byte(i*7 + i/251) }
  return ret
}


func TestFormatAndOpen( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  require.Equal ( t, uint32(0xCAFEBABE), vol.VolumeID () )
  require.Equal ( t, int64(0x200), vol.ClusterSize () )
  require.Equal ( t, 2, vol.geo.entry_size )
  require.True ( t, vol.Writable () )

  // L'arrel ocupa un cluster
  require.Equal ( t, vol.TotalSpace () - 0x200, vol.FreeSpace () )
  entries,err := vol.ReadDir ( "/" )
  require.NoError ( t, err )
  require.Empty ( t, entries )

} // end TestFormatAndOpen


func TestOpenBadSignature( t *testing.T ) {

  f := newTestImage ( t, 1<<20, 1 )
  _,err := f.WriteAt ( []byte("NOPE"), 0 )
  require.NoError ( t, err )
  _,err= Open ( f, 1<<20, nil )
  var verr *VolumeOpenError
  require.True ( t, errors.As ( err, &verr ) )

} // end TestOpenBadSignature


func TestWriteReadRoundTrip( t *testing.T ) {

  vol,f := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()
  data := pattern ( 5000 )
  require.NoError ( t, vol.WriteNewFile ( ctx, "/data.bin", bytes.NewReader ( data ) ) )
  got,err := vol.ReadFile ( "/data.bin" )
  require.NoError ( t, err )
  require.Equal ( t, data, got )

  // Fitxer buit
  require.NoError ( t, vol.WriteNewFile ( ctx, "/empty", bytes.NewReader ( nil ) ) )
  got,err= vol.ReadFile ( "/empty" )
  require.NoError ( t, err )
  require.Empty ( t, got )

  // Persistix després de tornar a obrir
  vol2,err := Open ( f, 1<<20, nil )
  require.NoError ( t, err )
  got,err= vol2.ReadFile ( "/DATA.BIN" )
  require.NoError ( t, err )
  require.Equal ( t, data, got )
  require.Equal ( t, vol.FreeSpace (), vol2.FreeSpace () )

} // end TestWriteReadRoundTrip


func TestFileSeekReadAt( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  data := pattern ( 3000 )
  require.NoError ( t, vol.WriteNewFile ( context.Background (), "/f",
    bytes.NewReader ( data ) ) )
  f,err := vol.Open ( "/f" )
  require.NoError ( t, err )
  defer f.Close ()
  require.Equal ( t, int64(3000), f.Size () )

  buf := make ( []byte, 700 )
  n,err := f.ReadAt ( buf, 400 )
  require.NoError ( t, err )
  require.Equal ( t, 700, n )
  require.Equal ( t, data[400:1100], buf )

  pos,err := f.Seek ( -100, io.SeekEnd )
  require.NoError ( t, err )
  require.Equal ( t, int64(2900), pos )
  rest,err := io.ReadAll ( f )
  require.NoError ( t, err )
  require.Equal ( t, data[2900:], rest )

  n,err= f.ReadAt ( buf, 2800 )
  require.Equal ( t, io.EOF, err )
  require.Equal ( t, 200, n )

} // end TestFileSeekReadAt


func TestWriteNewFileConflictAndNames( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()
  require.NoError ( t, vol.WriteNewFile ( ctx, "/a", strings.NewReader ( "x" ) ) )
  err := vol.WriteNewFile ( ctx, "/A", strings.NewReader ( "y" ) )
  require.ErrorIs ( t, err, ErrNameConflict )
  err= vol.WriteNewFile ( ctx, "/"+strings.Repeat ( "n", 43 ),
    strings.NewReader ( "y" ) )
  require.ErrorIs ( t, err, ErrNameTooLong )
  err= vol.WriteNewFile ( ctx, "/bad*name", strings.NewReader ( "y" ) )
  require.ErrorIs ( t, err, ErrInvalidName )
  err= vol.WriteNewFile ( ctx, "/missing/a", strings.NewReader ( "y" ) )
  require.ErrorIs ( t, err, ErrNotFound )
  err= vol.WriteNewFile ( ctx, "/a/b", strings.NewReader ( "y" ) )
  require.ErrorIs ( t, err, ErrNotDir )

} // end TestWriteNewFileConflictAndNames


func TestWriteNewFileNoSpace( t *testing.T ) {

  // 16 clusters de dades, l'arrel n'ocupa un
  vol,_ := newTestVolume ( t, 0x4000, 1 )
  require.Equal ( t, uint64(15*0x200), vol.FreeSpace () )
  err := vol.WriteNewFile ( context.Background (), "/big",
    bytes.NewReader ( pattern ( 8000 ) ) )
  require.ErrorIs ( t, err, ErrNoSpace )
  require.Equal ( t, uint64(15*0x200), vol.FreeSpace () )
  _,err= vol.Stat ( "/big" )
  require.ErrorIs ( t, err, ErrNotFound )

} // end TestWriteNewFileNoSpace


func TestWriteNewFileCancelled( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  free := vol.FreeSpace ()
  ctx,cancel := context.WithCancel ( context.Background () )
  r := &cancelReader{data: pattern ( 4096 ), cancel: cancel, after: 1024}
  err := vol.WriteNewFile ( ctx, "/partial", r )
  require.ErrorIs ( t, err, context.Canceled )
  require.Equal ( t, free, vol.FreeSpace () )
  entries,err := vol.ReadDir ( "/" )
  require.NoError ( t, err )
  require.Empty ( t, entries )

} // end TestWriteNewFileCancelled


// Cancel·la el context després de llegir 'after' bytes.
type cancelReader struct {
  data   []byte
  pos    int
  after  int
  cancel context.CancelFunc
}

func (self *cancelReader) Read( buf []byte ) (int,error) {
  if self.pos >= len(self.data) { return 0,io.EOF }
  n := copy ( buf, self.data[self.pos:] )
  self.pos+= n
  if self.pos >= self.after { self.cancel () }
  return n,nil
}


func TestDeleteEntry( t *testing.T ) {

  vol,f := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()
  require.NoError ( t, vol.WriteNewFile ( ctx, "/keep", bytes.NewReader ( pattern ( 1000 ) ) ) )

  // No existeix: el volum no canvia
  before,err := os.ReadFile ( f.Name () )
  require.NoError ( t, err )
  err= vol.DeleteEntry ( "/ghost" )
  require.ErrorIs ( t, err, ErrNotFound )
  after,err := os.ReadFile ( f.Name () )
  require.NoError ( t, err )
  require.True ( t, bytes.Equal ( before, after ) )

  // Existeix
  free := vol.FreeSpace ()
  require.NoError ( t, vol.DeleteEntry ( "/keep" ) )
  require.Equal ( t, free + 2*0x200, vol.FreeSpace () )
  _,err= vol.Stat ( "/keep" )
  require.ErrorIs ( t, err, ErrNotFound )

  // L'entrada esborrada es reutilitza
  require.NoError ( t, vol.WriteNewFile ( ctx, "/next", strings.NewReader ( "z" ) ) )
  e,err := vol.Stat ( "/next" )
  require.NoError ( t, err )
  require.Equal ( t, 0, e.index )

} // end TestDeleteEntry


func TestDeleteDirectories( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()
  free := vol.FreeSpace ()
  require.NoError ( t, vol.MkdirAll ( "/Content/0000000000000000/4D5307E6" ) )
  require.NoError ( t, vol.WriteNewFile ( ctx,
    "/Content/0000000000000000/4D5307E6/pkg", bytes.NewReader ( pattern ( 600 ) ) ) )
  require.NoError ( t, vol.MkdirAll ( "/Content/0000000000000000" ) )

  err := vol.DeleteEntry ( "/Content" )
  require.ErrorIs ( t, err, ErrNotEmpty )
  require.NoError ( t, vol.RemoveAll ( "/Content" ) )
  require.Equal ( t, free, vol.FreeSpace () )
  entries,err := vol.ReadDir ( "/" )
  require.NoError ( t, err )
  require.Empty ( t, entries )

} // end TestDeleteDirectories


func TestRenameEntry( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()
  require.NoError ( t, vol.WriteNewFile ( ctx, "/one", strings.NewReader ( "1" ) ) )
  require.NoError ( t, vol.WriteNewFile ( ctx, "/two", strings.NewReader ( "2" ) ) )

  require.ErrorIs ( t, vol.RenameEntry ( "/ghost", "x" ), ErrNotFound )
  require.ErrorIs ( t, vol.RenameEntry ( "/one", strings.Repeat ( "a", 43 ) ),
    ErrNameTooLong )
  require.ErrorIs ( t, vol.RenameEntry ( "/one", "TWO" ), ErrNameConflict )
  require.NoError ( t, vol.RenameEntry ( "/one", "One Renamed" ) )
  // Canviar sols les majúscules no és conflicte
  require.NoError ( t, vol.RenameEntry ( "/two", "TWO" ) )

  got,err := vol.ReadFile ( "/One Renamed" )
  require.NoError ( t, err )
  require.Equal ( t, []byte("1"), got )
  entries,err := vol.ReadDir ( "/" )
  require.NoError ( t, err )
  require.Len ( t, entries, 2 )
  require.Equal ( t, "One Renamed", entries[0].Name )
  require.Equal ( t, "TWO", entries[1].Name )

} // end TestRenameEntry


func TestDirIterRestartable( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()

  // 512/64 = 8 entrades per cluster, el directori ha de créixer
  names := make ( []string, 0, 20 )
  for i := 0; i < 20; i++ {
    name := "file" + string(rune('a'+i))
    names= append ( names, name )
    require.NoError ( t, vol.WriteNewFile ( ctx, "/"+name,
      strings.NewReader ( name ) ) )
  }

  collect := func(it *DirIter) []string {
    ret := []string{}
    for ; !it.End (); require.NoError ( t, it.Next () ) {
      ret= append ( ret, it.Entry ().Name )
    }
    return ret
  }
  it,err := vol.OpenDir ( "/" )
  require.NoError ( t, err )
  first := collect ( it )
  require.Equal ( t, names, first )
  require.NoError ( t, it.Reset () )
  require.Equal ( t, first, collect ( it ) )

} // end TestDirIterRestartable


func TestFAT32Entries( t *testing.T ) {

  // 0x20000 clusters de 512 bytes: entrades de 32 bits
  vol,_ := newTestVolume ( t, 64<<20, 1 )
  require.Equal ( t, 4, vol.geo.entry_size )
  data := pattern ( 2000 )
  require.NoError ( t, vol.WriteNewFile ( context.Background (), "/x",
    bytes.NewReader ( data ) ) )
  got,err := vol.ReadFile ( "/x" )
  require.NoError ( t, err )
  require.Equal ( t, data, got )

} // end TestFAT32Entries


func TestReadOnlyRegion( t *testing.T ) {

  f := newTestImage ( t, 1<<20, 1 )
  vol,err := Open ( utils.NewReadOnlyRegion ( f, 0, 1<<20 ), 1<<20, nil )
  require.NoError ( t, err )
  require.False ( t, vol.Writable () )
  err= vol.WriteNewFile ( context.Background (), "/a", strings.NewReader ( "a" ) )
  require.ErrorIs ( t, err, ErrReadOnly )

} // end TestReadOnlyRegion


func TestPackTime( t *testing.T ) {

  ts := time.Date ( 2012, time.March, 14, 21, 37, 58, 0, time.Local )
  require.True ( t, ts.Equal ( utils.UnpackFATTime ( utils.PackFATTime ( ts ) ) ) )
  require.True ( t, utils.UnpackFATTime ( 0 ).IsZero () )

} // end TestPackTime


// Dispositiu que falla les n primeres escriptures dins de [from,to).
type _FailingDev struct {
  *os.File
  from,to int64
  n       int
}


func (self *_FailingDev) WriteAt( buf []byte, off int64 ) (int,error) {
  if self.n > 0 && off >= self.from && off < self.to {
    self.n--
    return 0,errors.New ( "write error" )
  }
  return self.File.WriteAt ( buf, off )
}


func TestMkdirWriteFailure( t *testing.T ) {

  const length = 4<<20
  f := newTestImage ( t, length, 8 )
  dev := &_FailingDev{File: f}
  vol,err := Open ( dev, length, nil )
  require.NoError ( t, err )
  free := vol.FreeSpace ()

  // Falla el cluster nou
  dev.from,dev.to,dev.n= vol.geo.data_start,length,1
  require.Error ( t, vol.Mkdir ( "/a" ) )
  require.Equal ( t, free, vol.FreeSpace () )
  require.Empty ( t, vol.fat.dirty )

  // Falla la FAT
  dev.from,dev.to,dev.n= _HEADER_AREA,vol.geo.data_start,1
  require.Error ( t, vol.Mkdir ( "/b" ) )
  require.Equal ( t, free, vol.FreeSpace () )
  require.Empty ( t, vol.fat.dirty )
  _,err= vol.Stat ( "/b" )
  require.ErrorIs ( t, err, ErrNotFound )

  again,err := Open ( f, length, nil )
  require.NoError ( t, err )
  require.Equal ( t, free, again.FreeSpace () )
  require.NoError ( t, vol.Mkdir ( "/c" ) )
  require.Equal ( t, free-uint64(vol.ClusterSize ()), vol.FreeSpace () )

} // end TestMkdirWriteFailure


func TestSetEntryInfo( t *testing.T ) {

  vol,f := newTestVolume ( t, 1<<20, 1 )
  ctx := context.Background ()
  require.NoError ( t, vol.WriteNewFile ( ctx, "/file", strings.NewReader ( "x" ) ) )
  require.NoError ( t, vol.Mkdir ( "/dir" ) )
  before,err := vol.Stat ( "/file" )
  require.NoError ( t, err )

  mod := time.Date ( 2011, time.November, 11, 10, 20, 30, 0, time.Local )
  require.NoError ( t, vol.SetEntryInfo ( "/file",
    ATTR_HIDDEN|ATTR_READ_ONLY, time.Time{}, mod, time.Time{} ) )
  // El bit de directori es manté
  require.NoError ( t, vol.SetEntryInfo ( "/dir", ATTR_SYSTEM,
    time.Time{}, time.Time{}, time.Time{} ) )
  require.ErrorIs ( t, vol.SetEntryInfo ( "/ghost", 0,
    time.Time{}, time.Time{}, time.Time{} ), ErrNotFound )
  require.ErrorIs ( t, vol.SetEntryInfo ( "/", 0,
    time.Time{}, time.Time{}, time.Time{} ), ErrInvalidName )

  // Es llig del disc
  again,err := Open ( f, 1<<20, nil )
  require.NoError ( t, err )
  e,err := again.Stat ( "/file" )
  require.NoError ( t, err )
  require.Equal ( t, uint8(ATTR_HIDDEN|ATTR_READ_ONLY), e.Attributes )
  require.True ( t, mod.Equal ( e.Modified ) )
  require.True ( t, before.Created.Equal ( e.Created ) )
  require.Equal ( t, before.Size, e.Size )
  d,err := again.Stat ( "/dir" )
  require.NoError ( t, err )
  require.True ( t, d.IsDir () )
  require.Equal ( t, uint8(ATTR_SYSTEM|ATTR_DIRECTORY), d.Attributes )

} // end TestSetEntryInfo


func TestWriteFileAt( t *testing.T ) {

  vol,_ := newTestVolume ( t, 1<<20, 1 )
  data := pattern ( 3*512 + 100 )
  require.NoError ( t, vol.WriteNewFile ( context.Background (), "/f",
    bytes.NewReader ( data ) ) )

  // Creua un límit de cluster
  patch := []byte("0123456789")
  require.NoError ( t, vol.WriteFileAt ( "/f", patch, 512-4 ) )
  copy ( data[512-4:], patch )
  got,err := vol.ReadFile ( "/f" )
  require.NoError ( t, err )
  require.Equal ( t, data, got )

  require.ErrorIs ( t, vol.WriteFileAt ( "/f", patch, int64(len(data)-5) ),
    utils.ErrOutOfBounds )
  require.ErrorIs ( t, vol.WriteFileAt ( "/", patch, 0 ), ErrIsDir )

} // end TestWriteFileAt
