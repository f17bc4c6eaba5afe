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

package x360

import (
  "bytes"
  "crypto/sha1"
  "errors"
  "io"
  "strings"
  "testing"

  "github.com/stretchr/testify/require"

  "github.com/adriagipas/xcontent/internal/testutil"
  "github.com/adriagipas/xcontent/utils"
)


var _PROFILE = [8]byte{0xE0,0x00,0x01,0x02,0x03,0x04,0x05,0x06}


func pattern( n int ) []byte {
  ret := make ( []byte, n )
  for i := range ret { ret[i]= byte(i*13 + i/509) }
  return ret
}


func testFiles() []testutil.File {
  return []testutil.File{
    {Path: "default.xex", Data: pattern ( 9000 )},
    {Path: "media/intro.wmv", Data: pattern ( 4096 )},
    {Path: "media/sub/empty.txt", Data: nil},
    {Path: "save.dat", Data: pattern ( 100 )},
  }
}


func openSTFS( t *testing.T, data []byte, verify bool ) *STFS {
  t.Helper ()
  src := testutil.NewMemSource ().Add ( "/pkg", data )
  f,err := src.OpenFile ( "/pkg" )
  require.NoError ( t, err )
  t.Cleanup ( func() { f.Close () } )
  pkg,err := OpenSTFS ( f, OpenOptions{Verify: verify} )
  require.NoError ( t, err )
  return pkg
}


func TestSTFSHeader( t *testing.T ) {

  thumb := testutil.PNG ( 4, 4 )
  data := testutil.BuildSTFS ( testutil.STFSOptions{
    HeaderOptions: testutil.HeaderOptions{
      ContentType: uint32(CONTENT_TYPE_SAVED_GAME),
      TitleID: 0x4D5307E6,
      ProfileID: _PROFILE,
      DisplayName: "Halo 3 Save",
      Description: "Campaign",
      TitleName: "Halo 3",
      Publisher: "Microsoft",
      Thumbnail: thumb,
      TitleThumbnail: []byte("not a png"),
    },
  }, testFiles () )
  pkg := openSTFS ( t, data, true )

  h := pkg.Header ()
  require.Equal ( t, FS_STFS, h.Kind () )
  require.Equal ( t, CONTENT_TYPE_SAVED_GAME, h.ContentType )
  require.Equal ( t, "Saved Game", h.ContentType.String () )
  require.Equal ( t, "4D5307E6", h.TitleIDString () )
  require.Equal ( t, "E000010203040506", h.ProfileIDString () )
  require.Equal ( t, "Halo 3 Save", h.Name () )
  require.Equal ( t, "Campaign", h.Description () )
  require.Equal ( t, "Halo 3", h.TitleName )
  require.Equal ( t, "Microsoft", h.PublisherName )
  require.Equal ( t, "CONS", h.Type () )
  require.Equal ( t, "Retail", h.CertOwnConsoleType () )
  require.Equal ( t, int64(0xA000), h.BaseOffset () )

  got,ok := h.Thumbnail ()
  require.True ( t, ok )
  require.Equal ( t, thumb, got )
  _,ok= h.TitleThumbnail ()
  require.False ( t, ok )

  var buf bytes.Buffer
  require.NoError ( t, h.PrintInfo ( &buf, "" ) )
  require.Contains ( t, buf.String (), "Secure Transacted File System" )
  require.Contains ( t, buf.String (), "Halo 3 Save" )

} // end TestSTFSHeader


func checkListing( t *testing.T, pkg *STFS ) {

  t.Helper ()
  listing,err := pkg.GetFileListing ( false )
  require.NoError ( t, err )
  require.Len ( t, listing.Entries, 6 )
  require.Len ( t, listing.Root, 3 )

  names := []string{}
  require.NoError ( t, listing.Walk ( func(path string, e *FileEntry) error {
    names= append ( names, path )
    return nil
  }))
  require.Equal ( t, []string{
    "/default.xex",
    "/media",
    "/media/intro.wmv",
    "/media/sub",
    "/media/sub/empty.txt",
    "/save.dat",
  }, names )

  for _,f := range testFiles () {
    e,ok := listing.Find ( strings.ToUpper ( f.Path ) )
    require.True ( t, ok, f.Path )
    require.False ( t, e.IsDir () )
    require.Equal ( t, uint32(len(f.Data)), e.Size )
    got,err := pkg.ReadFile ( e )
    require.NoError ( t, err )
    require.Equal ( t, len(f.Data), len(got) )
    if len(f.Data) > 0 { require.Equal ( t, f.Data, got ) }
  }
  dir,ok := listing.Find ( "/media/sub" )
  require.True ( t, ok )
  require.True ( t, dir.IsDir () )
  _,err= pkg.OpenFile ( dir )
  require.Error ( t, err )
  _,ok= listing.Find ( "/missing" )
  require.False ( t, ok )

} // end checkListing


func TestSTFSListingFemale( t *testing.T ) {
  data := testutil.BuildSTFS ( testutil.STFSOptions{}, testFiles () )
  checkListing ( t, openSTFS ( t, data, true ) )
}


func TestSTFSListingFragmented( t *testing.T ) {
  data := testutil.BuildSTFS ( testutil.STFSOptions{Fragmented: true},
    testFiles () )
  checkListing ( t, openSTFS ( t, data, true ) )
}


func TestSTFSListingMale( t *testing.T ) {
  for _,second := range []bool{false,true} {
    data := testutil.BuildSTFS ( testutil.STFSOptions{
      Male: true,
      SecondCopy: second,
      Fragmented: true,
    }, testFiles () )
    checkListing ( t, openSTFS ( t, data, true ) )
  }
}


func TestSTFSListingCached( t *testing.T ) {

  data := testutil.BuildSTFS ( testutil.STFSOptions{}, testFiles () )
  pkg := openSTFS ( t, data, false )
  l1,err := pkg.GetFileListing ( false )
  require.NoError ( t, err )
  l2,err := pkg.GetFileListing ( false )
  require.NoError ( t, err )
  require.Same ( t, l1, l2 )
  l3,err := pkg.GetFileListing ( true )
  require.NoError ( t, err )
  require.NotSame ( t, l1, l3 )
  require.Equal ( t, len(l1.Entries), len(l3.Entries) )

} // end TestSTFSListingCached


func TestSTFSErrors( t *testing.T ) {

  good := testutil.BuildSTFS ( testutil.STFSOptions{}, testFiles () )
  open := func(data []byte, verify bool) error {
    src := testutil.NewMemSource ().Add ( "/pkg", data )
    f,err := src.OpenFile ( "/pkg" )
    require.NoError ( t, err )
    defer f.Close ()
    _,err= OpenSTFS ( f, OpenOptions{Verify: verify} )
    return err
  }

  // Magic
  bad := bytes.Clone ( good )
  copy ( bad, "XXXX" )
  err := open ( bad, false )
  require.ErrorIs ( t, err, ErrBadMagic )
  var perr *ParseError
  require.True ( t, errors.As ( err, &perr ) )

  // Versió de metadades
  bad= bytes.Clone ( good )
  bad[0x22C+0x11f]= 7
  require.ErrorIs ( t, open ( bad, false ), ErrUnsupportedVersion )

  // Grandària del descriptor
  bad= bytes.Clone ( good )
  bad[0x379]= 0x20
  require.ErrorIs ( t, open ( bad, false ), ErrUnsupportedVersion )

  // Hash de la capçalera
  bad= bytes.Clone ( good )
  bad[0x411]^= 0xFF
  require.NoError ( t, open ( bad, false ) )
  require.ErrorIs ( t, open ( bad, true ), ErrHashMismatch )

  // Fitxer massa curt
  require.Error ( t, open ( good[:0x100], false ) )
  require.ErrorIs ( t, open ( nil, false ), ErrBadMagic )

} // end TestSTFSErrors


func TestSTFSBlockHashMismatch( t *testing.T ) {

  data := testutil.BuildSTFS ( testutil.STFSOptions{}, testFiles () )
  // Primer bloc de dades (taula de fitxers) en 0xB000
  data[0xB000+0x3F]^= 0x01
  pkg := openSTFS ( t, data, true )
  _,err := pkg.GetFileListing ( false )
  require.ErrorIs ( t, err, ErrHashMismatch )

  pkg= openSTFS ( t, data, false )
  _,err= pkg.GetFileListing ( false )
  require.NoError ( t, err )

} // end TestSTFSBlockHashMismatch


func TestSVODListing( t *testing.T ) {

  for _,enhanced := range []bool{false,true} {
    svod := testutil.BuildSVOD ( testutil.SVODOptions{
      HeaderOptions: testutil.HeaderOptions{
        ContentType: uint32(CONTENT_TYPE_GAME_ON_DEMAND),
        TitleID: 0x545407D1,
        DisplayName: "Some Game",
      },
      Enhanced: enhanced,
    }, testFiles () )
    src := testutil.NewMemSource ().AddSVOD ( "/Content/G/545407D1", svod )

    pkg,err := OpenSVOD ( src, "/Content/G/545407D1",
      OpenOptions{Verify: true} )
    require.NoError ( t, err )
    require.Equal ( t, FS_SVOD, pkg.Header ().Kind () )
    require.Equal ( t, enhanced, pkg.Enhanced () )
    require.Equal ( t, []string{"/Content/G/545407D1.data/Data0000"},
      pkg.DataFilePaths () )

    listing,err := pkg.GetFileListing ()
    require.NoError ( t, err )
    require.Len ( t, listing.Entries, 6 )
    for _,f := range testFiles () {
      e,ok := listing.Find ( f.Path )
      require.True ( t, ok, f.Path )
      require.Equal ( t, "/" + f.Path, e.Path )
      require.Equal ( t, uint32(len(f.Data)), e.Size )
      require.Equal ( t, []string{"Normal"}, e.AttributeNames () )
      got,err := pkg.ReadFile ( e )
      require.NoError ( t, err )
      require.Equal ( t, len(f.Data), len(got) )
      if len(f.Data) > 0 {
        require.Equal ( t, f.Data, got )
        require.Equal ( t, pkg.DataFilePaths (), e.DataFiles )
      }
    }
    e,_ := listing.Find ( "/default.xex" )
    require.Equal ( t, uint32(0x2800), e.SizeOnDisk () )
    dir,ok := listing.Find ( "/media" )
    require.True ( t, ok )
    require.True ( t, dir.IsDir () )
    require.Equal ( t, []string{"Directory"}, dir.AttributeNames () )
    require.Zero ( t, src.Opened () )
  }

} // end TestSVODListing


func TestSVODMissingDataFile( t *testing.T ) {

  svod := testutil.BuildSVOD ( testutil.SVODOptions{}, testFiles () )
  src := testutil.NewMemSource ().Add ( "/pkg", svod.Header )
  pkg,err := OpenSVOD ( src, "/pkg", OpenOptions{} )
  require.NoError ( t, err )
  require.Error ( t, pkg.CheckDataFiles () )
  _,err= pkg.GetFileListing ()
  var perr *ParseError
  require.True ( t, errors.As ( err, &perr ) )

} // end TestSVODMissingDataFile


func TestSVODWriteFileEntry( t *testing.T ) {

  const data_path = "/pkg.data/Data0000"
  svod := testutil.BuildSVOD ( testutil.SVODOptions{}, testFiles () )
  src := testutil.NewMemSource ().AddSVOD ( "/pkg", svod )
  pkg,err := OpenSVOD ( src, "/pkg", OpenOptions{} )
  require.NoError ( t, err )
  listing,err := pkg.GetFileListing ()
  require.NoError ( t, err )
  e,ok := listing.Find ( "/save.dat" )
  require.True ( t, ok )

  // El registre no pot créixer
  require.ErrorIs ( t, pkg.WriteFileEntry ( e, "saved.dat", 0 ), ErrInvalidName )
  require.ErrorIs ( t, pkg.WriteFileEntry ( e, "s.dat", 0 ), ErrInvalidName )
  require.ErrorIs ( t, pkg.WriteFileEntry ( e, "a/b.dat", 0 ), ErrInvalidName )

  // Més curt però en el mateix registre. El bit de directori s'ignora.
  require.NoError ( t, pkg.WriteFileEntry ( e, "sav.dat",
    GDFX_ATTR_HIDDEN|GDFX_ATTR_NORMAL|GDFX_ATTR_DIRECTORY ) )
  require.Equal ( t, "/sav.dat", e.Path )
  require.Zero ( t, src.Opened () )

  listing,err= pkg.GetFileListing ()
  require.NoError ( t, err )
  require.Len ( t, listing.Entries, 6 )
  _,ok= listing.Find ( "/save.dat" )
  require.False ( t, ok )
  got,ok := listing.Find ( "/sav.dat" )
  require.True ( t, ok )
  require.Equal ( t, []string{"Hidden","Normal"}, got.AttributeNames () )
  content,err := pkg.ReadFile ( got )
  require.NoError ( t, err )
  require.Equal ( t, pattern ( 100 ), content )
  _,ok= listing.Find ( "/media/sub/empty.txt" )
  require.True ( t, ok )

  // Hash de nivell 0 del bloc del registre
  r := pkg.newReader ()
  block := (r.relSector ( got.rec_sector )%_SVOD_SECTORS_PER_FILE)/2
  r.Close ()
  data := src.Data ( data_path )
  buf := make ( []byte, _SVOD_BLOCK_SIZE )
  copy ( buf, data[sectorAddress ( block*2 ):] )
  sum := sha1.Sum ( buf )
  addr := hashAddress ( block )
  require.Equal ( t, sum[:], data[addr:addr+sha1.Size] )

  // Font sense escriptura
  ro := struct{ utils.FileSource }{src}
  pkg,err= OpenSVOD ( ro, "/pkg", OpenOptions{} )
  require.NoError ( t, err )
  require.ErrorIs ( t, pkg.WriteFileEntry ( got, "sav.dat", 0 ), ErrReadOnly )

} // end TestSVODWriteFileEntry


func TestOpenPackageDispatch( t *testing.T ) {

  svod := testutil.BuildSVOD ( testutil.SVODOptions{}, testFiles () )
  src := testutil.NewMemSource ().
    Add ( "/a", testutil.BuildSTFS ( testutil.STFSOptions{}, testFiles () ) ).
    AddSVOD ( "/b", svod )

  pkg,err := OpenPackage ( src, "/a", OpenOptions{Verify: true} )
  require.NoError ( t, err )
  require.Equal ( t, FS_STFS, pkg.Kind )
  require.NotNil ( t, pkg.STFS )
  require.Nil ( t, pkg.SVOD )
  require.Equal ( t, FS_STFS, pkg.Header ().Kind () )
  listing,err := pkg.STFS.GetFileListing ( false )
  require.NoError ( t, err )
  require.Len ( t, listing.Entries, 6 )

  pkg,err= OpenPackage ( src, "/b", OpenOptions{Verify: true} )
  require.NoError ( t, err )
  require.Equal ( t, FS_SVOD, pkg.Kind )
  require.NotNil ( t, pkg.SVOD )
  require.Nil ( t, pkg.STFS )
  require.Zero ( t, src.Opened () )

  _,err= OpenPackage ( src, "/missing", OpenOptions{} )
  require.Error ( t, err )

} // end TestOpenPackageDispatch


func TestSVODAddress( t *testing.T ) {

  // Bloc mestre + primer bloc hash
  require.Equal ( t, int64(0x2000), sectorAddress ( 0 ) )
  require.Equal ( t, int64(0x12000), sectorAddress ( 0x20 ) )
  // Després de 0xCC blocs hi ha un altre bloc hash
  require.Equal ( t, int64(0x2000+0x197*0x800), sectorAddress ( 0x197 ) )
  require.Equal ( t, int64(0x3000+0x198*0x800), sectorAddress ( 0x198 ) )

  pkg := &SVOD{header: &Header{DataFileCount: 3}, path: "/x"}
  r := pkg.newReader ()
  require.Equal ( t, 0, r.dataFileIndex ( 0x14387 ) )
  require.Equal ( t, 1, r.dataFileIndex ( 0x14388 ) )
  pkg.header.Svod.DataBlockOffset= 0x10
  require.Equal ( t, -1, r.dataFileIndex ( 0 ) )
  require.Equal ( t, 0, r.dataFileIndex ( 0x20 ) )
  pkg.header.Svod.DataBlockOffset= 0

  // Un fitxer que creua el límit entre dos fitxers de dades
  p := _GdfxParser{r: r, paths: pkg.DataFilePaths ()}
  require.Equal ( t, []string{"/x.data/Data0000","/x.data/Data0001"},
    p.dataFiles ( 0x14380, 0x8000 ) )
  require.Empty ( t, p.dataFiles ( 0x14380, 0 ) )

} // end TestSVODAddress


func TestContentTypeStrings( t *testing.T ) {
  require.Equal ( t, "Game on Demand", CONTENT_TYPE_GAME_ON_DEMAND.String () )
  require.Equal ( t, "Unknown (00000042)", ContentType(0x42).String () )
  require.Equal ( t, "Image (png)", FileTypeString ( "a/b/ICON.PNG" ) )
  require.Equal ( t, "Xenon Executable (xex)", FileTypeString ( "default.xex" ) )
  require.Equal ( t, "File", FileTypeString ( "noext" ) )
  require.Equal ( t, "File (qqq)", FileTypeString ( "x.qqq" ) )
}


func TestSTFSReaderEOF( t *testing.T ) {

  data := testutil.BuildSTFS ( testutil.STFSOptions{}, testFiles () )
  pkg := openSTFS ( t, data, false )
  listing,err := pkg.GetFileListing ( false )
  require.NoError ( t, err )
  e,_ := listing.Find ( "/save.dat" )
  r,err := pkg.OpenFile ( e )
  require.NoError ( t, err )
  defer r.Close ()
  buf := make ( []byte, 1000 )
  n,err := io.ReadFull ( r, buf )
  require.Equal ( t, 100, n )
  require.ErrorIs ( t, err, io.ErrUnexpectedEOF )
  n,err= r.Read ( buf )
  require.Zero ( t, n )
  require.ErrorIs ( t, err, io.EOF )

} // end TestSTFSReaderEOF
