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
 *  transfer.go - Extracció i injecció de fitxers entre un volum FATX
 *                i el sistema de fitxers local.
 *
 */

package transfer

import (
  "bufio"
  "context"
  "errors"
  "fmt"
  "io"
  "io/fs"
  "os"
  "path/filepath"
  "strings"

  "github.com/adriagipas/xcontent/fatx"
  "github.com/adriagipas/xcontent/utils"
  "github.com/adriagipas/xcontent/x360"
)


/*********/
/* TIPUS */
/*********/

// S'invoca amb false en començar i amb true en acabar.
type ProgressFunc func(finished bool)

// S'invoca després de cada element. i comença en 0.
type ItemFunc func(i, n int, res Result)


// Element a extraure. AuxPaths són els fitxers de dades SVOD.
type Item struct {
  Path     string
  AuxPaths []string
}


type Result struct {

  Source string   // Camí d'origen (dispositiu o local)
  Target string   // Camí de destí principal
  Files  []string // Fitxers escrits
  Err    error

}


type Options struct {

  InjectDir  string // Destí dels fitxers que no són paquets
  BufferSize int
  Progress   ProgressFunc
  OnItem     ItemFunc
  Logger     utils.Logger

}


/**********/
/* ENGINE */
/**********/

type Engine struct {

  vol    *fatx.Volume
  opts   Options
  logger utils.Logger

}


func NewEngine( vol *fatx.Volume, opts Options ) *Engine {

  if opts.BufferSize <= 0 { opts.BufferSize= 0x10000 }
  if opts.InjectDir == "" {
    opts.InjectDir= "/Content/0000000000000000/FFFE07D1/00010000"
  }

  return &Engine{
    vol: vol,
    opts: opts,
    logger: utils.OrNop ( opts.Logger ),
  }

} // end NewEngine


func (self *Engine) begin() {
  if self.opts.Progress != nil { self.opts.Progress ( false ) }
}


func (self *Engine) end() {
  if self.opts.Progress != nil { self.opts.Progress ( true ) }
}


func (self *Engine) item( i, n int, res Result ) {
  if self.opts.OnItem != nil { self.opts.OnItem ( i, n, res ) }
}


// Lector que s'atura quan es cancel·la el context.
type _CtxReader struct {
  ctx context.Context
  r   io.Reader
}


func (self *_CtxReader) Read( buf []byte ) (int,error) {
  if err := self.ctx.Err (); err != nil { return 0,err }
  return self.r.Read ( buf )
}


/***********/
/* EXTRACT */
/***********/

// Extrau cada element i els seus fitxers auxiliars dins de dest_dir,
// relatius al directori on està l'element. Un element que falla no
// atura la resta. Mai es sobreescriu un fitxer local: si el destí ja
// existeix, siga d'abans o d'un altre element del lot, l'element falla
// amb fs.ErrExist.
func (self *Engine) Extract(

  ctx      context.Context,
  items    []Item,
  dest_dir string,

) []Result {

  self.begin ()
  defer self.end ()
  ret := make ( []Result, len(items) )
  for i,it := range items {
    if err := ctx.Err (); err != nil {
      ret[i]= Result{Source: it.Path, Err: err}
    } else {
      ret[i]= self.extractItem ( ctx, it, dest_dir )
    }
    if ret[i].Err != nil {
      self.logger.Warn ( "extract failed", "path", it.Path,
        "error", ret[i].Err )
    }
    self.item ( i, len(items), ret[i] )
  }

  return ret

} // end Extract


func (self *Engine) extractItem(

  ctx      context.Context,
  it       Item,
  dest_dir string,

) Result {

  ret := Result{Source: it.Path}
  root,_ := utils.SplitDirName ( it.Path )
  root= strings.TrimSuffix ( root, "/" )
  fail := func(err error) Result {
    for _,f := range ret.Files { os.Remove ( f ) }
    ret.Files= nil
    ret.Err= err
    return ret
  }

  paths := append ( []string{it.Path}, it.AuxPaths... )
  for _,p := range paths {
    p= utils.JoinPath ( p )
    rel := strings.TrimPrefix ( strings.TrimPrefix ( p, root ), "/" )
    dst := filepath.Join ( dest_dir, filepath.FromSlash ( rel ) )
    if err := self.extractFile ( ctx, p, dst ); err != nil {
      return fail ( fmt.Errorf ( "extracting '%s': %w", p, err ) )
    }
    ret.Files= append ( ret.Files, dst )
  }
  ret.Target= ret.Files[0]

  return ret

} // end extractItem


// Escriu primer en un fitxer temporal i després el reanomena.
func (self *Engine) extractFile( ctx context.Context, src, dst string ) error {

  if _,err := os.Lstat ( dst ); err == nil {
    return fmt.Errorf ( "%w: '%s'", fs.ErrExist, dst )
  } else if !errors.Is ( err, fs.ErrNotExist ) {
    return err
  }
  f,err := self.vol.Open ( src )
  if err != nil { return err }
  defer f.Close ()
  dir := filepath.Dir ( dst )
  if err := os.MkdirAll ( dir, 0o755 ); err != nil { return err }
  tmp,err := os.CreateTemp ( dir, ".xcontent-*" )
  if err != nil { return err }
  buf := make ( []byte, self.opts.BufferSize )
  _,err= io.CopyBuffer ( tmp, &_CtxReader{ctx,f}, buf )
  if cerr := tmp.Close (); err == nil { err= cerr }
  if err == nil { err= moveNew ( tmp.Name (), dst ) }
  if err != nil {
    os.Remove ( tmp.Name () )
    return err
  }
  self.logger.Debug ( "file extracted", "src", src, "dst", dst,
    "size", f.Size () )

  return nil

} // end extractFile


// Mou tmp a dst sense reemplaçar res. os.Link falla si dst ja
// existeix. Si el sistema de fitxers no admet enllaços es torna a
// comprovar i es reanomena.
func moveNew( tmp, dst string ) error {

  err := os.Link ( tmp, dst )
  if err == nil { return os.Remove ( tmp ) }
  if errors.Is ( err, fs.ErrExist ) {
    return fmt.Errorf ( "%w: '%s'", fs.ErrExist, dst )
  }
  if _,serr := os.Lstat ( dst ); serr == nil {
    return fmt.Errorf ( "%w: '%s'", fs.ErrExist, dst )
  }

  return os.Rename ( tmp, dst )

} // end moveNew


/**********/
/* INJECT */
/**********/

// Destí d'un paquet segons la seua capçalera.
func ContentPath( h *x360.Header ) string {
  return fmt.Sprintf ( "/Content/%s/%08X/%08X", h.ProfileIDString (),
    h.TitleID, uint32(h.ContentType) )
} // end ContentPath


// Copia fitxers locals al volum. Els paquets van al seu directori de
// contingut, la resta a InjectDir.
func (self *Engine) Inject( ctx context.Context, files []string ) []Result {

  self.begin ()
  defer self.end ()
  ret := make ( []Result, len(files) )
  for i,path := range files {
    if err := ctx.Err (); err != nil {
      ret[i]= Result{Source: path, Err: err}
    } else {
      ret[i]= self.injectFile ( ctx, path )
    }
    if ret[i].Err != nil {
      self.logger.Warn ( "inject failed", "path", path, "error", ret[i].Err )
    }
    self.item ( i, len(files), ret[i] )
  }

  return ret

} // end Inject


// Torna el directori de destí i els fitxers relatius a copiar.
func (self *Engine) route( path string ) (string,[]string,error) {

  dir,name := filepath.Dir ( path ), filepath.Base ( path )
  src := utils.LocalSource{Root: dir}
  pkg,err := x360.OpenPackage ( src, name, x360.OpenOptions{
    Logger: self.logger,
  } )
  if errors.Is ( err, x360.ErrBadMagic ) {
    return self.opts.InjectDir,[]string{name},nil
  }
  if err != nil { return "",nil,err }

  files := []string{name}
  if pkg.Kind == x360.FS_SVOD {
    // Abans d'escriure res en el volum
    if err := pkg.SVOD.CheckDataFiles (); err != nil { return "",nil,err }
    files= append ( files, pkg.SVOD.DataFilePaths ()... )
  }

  return ContentPath ( pkg.Header () ),files,nil

} // end route


// Crea els directoris que falten de path i afegeix a created els
// que ha creat, de pare a fill.
func (self *Engine) mkdirAll( path string, created *[]string ) error {

  parts,_ := utils.SplitPath ( path )
  for i := range parts {
    dir := utils.JoinPath ( parts[:i+1]... )
    e,err := self.vol.Stat ( dir )
    if err == nil {
      if !e.IsDir () {
        return fmt.Errorf ( "%w: '%s'", fatx.ErrNotDir, dir )
      }
      continue
    }
    if !errors.Is ( err, fatx.ErrNotFound ) { return err }
    if err := self.vol.Mkdir ( dir ); err != nil { return err }
    *created= append ( *created, dir )
  }

  return nil

} // end mkdirAll


func (self *Engine) injectFile( ctx context.Context, path string ) Result {

  ret := Result{Source: path}
  dir,files,err := self.route ( path )
  if err != nil {
    ret.Err= err
    return ret
  }

  // Si falla es desfà tot: primer els fitxers i després els
  // directoris nous, de fill a pare.
  created := []string{}
  fail := func(err error) Result {
    undo := append ( append ( []string{}, created... ), ret.Files... )
    for i := len(undo)-1; i >= 0; i-- {
      if rerr := self.vol.DeleteEntry ( undo[i] ); rerr != nil {
        self.logger.Error ( "unable to undo partial inject",
          "path", undo[i], "error", rerr )
      }
    }
    ret.Files= nil
    ret.Err= err
    return ret
  }

  local_dir := filepath.Dir ( path )
  for _,rel := range files {
    dst := utils.JoinPath ( dir, rel )
    ddir,_ := utils.SplitDirName ( dst )
    if err := self.mkdirAll ( ddir, &created ); err != nil {
      return fail ( err )
    }
    f,err := os.Open ( filepath.Join ( local_dir, filepath.FromSlash ( rel ) ) )
    if err != nil { return fail ( err ) }
    err= self.vol.WriteNewFile ( ctx, dst,
      bufio.NewReaderSize ( f, self.opts.BufferSize ) )
    f.Close ()
    if err != nil {
      return fail ( fmt.Errorf ( "injecting '%s': %w", rel, err ) )
    }
    ret.Files= append ( ret.Files, dst )
  }
  ret.Target= ret.Files[0]

  return ret

} // end injectFile
