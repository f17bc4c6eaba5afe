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
 *  main.go - Utilitat per gestionar el contingut de dispositius
 *            d'emmagatzemament de la Xbox 360.
 */

package main

import (
  "context"
  "fmt"
  "log"
  "os"
  "os/signal"
  "strconv"
  "time"

  "github.com/spf13/cobra"

  "github.com/adriagipas/xcontent/config"
  "github.com/adriagipas/xcontent/ops"
  "github.com/adriagipas/xcontent/utils"
)


/***********/
/* OPCIONS */
/***********/

var (
  cfg_path  string
  log_level string
  images    []string
  scan      bool
  verify    bool
  recursive bool
  thumbnail string
  dest_dir  string
  mk_opts   ops.MkImageOptions
  mk_spc    uint32
  mk_vid    string
  edit      ops.EntryEdit
  dates     [3]string
)


// Llig la configuració i aplica les opcions de la línia d'ordres.
func newEnv( cmd *cobra.Command ) (*ops.Env,error) {

  cfg,err := config.ReadFromFile ( cfg_path )
  if err != nil { return nil,err }
  if cmd.Flags ().Changed ( "log-level" ) { cfg.LogLevel= log_level }
  if len(images) > 0 {
    cfg.Detection.Images= append ( cfg.Detection.Images, images... )
  }
  if scan { cfg.Detection.ScanBlockDevices= true }
  if verify { cfg.Catalog.VerifyHashes= true }
  if err := cfg.Validate (); err != nil { return nil,err }
  logger,err := utils.NewLogger ( os.Stderr, cfg.LogLevel )
  if err != nil { return nil,err }

  return &ops.Env{Cfg: cfg, Logger: logger, Out: os.Stdout},nil

} // end newEnv


// Executa una operació amb un context que es cancel·la amb Ctrl-C.
func run(

  fn func(ctx context.Context, env *ops.Env, args []string) error,

) func(cmd *cobra.Command, args []string) error {

  return func(cmd *cobra.Command, args []string) error {
    env,err := newEnv ( cmd )
    if err != nil { return err }
    ctx,stop := signal.NotifyContext ( context.Background (), os.Interrupt )
    defer stop ()
    return fn ( ctx, env, args )
  }

} // end run


/**********/
/* ORDRES */
/**********/

var rootCmd = &cobra.Command{
  Use: "xcontent",
  Short: "Browse and manage the content of Xbox 360 storage devices",
  SilenceUsage: true,
  SilenceErrors: true,
}

var devicesCmd = &cobra.Command{
  Use: "devices",
  Short: "List detected FATX devices",
  Args: cobra.NoArgs,
  RunE: run ( func(ctx context.Context, env *ops.Env, _ []string) error {
    return ops.Devices ( ctx, env )
  }),
}

var showCmd = &cobra.Command{
  Use: "show [DEV=/PATH]...",
  Short: "Show the catalog, a volume or a package header",
  RunE: run ( ops.Show ),
}

var lsCmd = &cobra.Command{
  Use: "ls DEV=/PATH[::/INNER]...",
  Short: "List a directory of the volume or of a package",
  Args: cobra.MinimumNArgs ( 1 ),
  RunE: run ( ops.List ),
}

var catCmd = &cobra.Command{
  Use: "cat DEV=/PATH[::/INNER]...",
  Short: "Print files of the volume, of a package or its thumbnails",
  Args: cobra.MinimumNArgs ( 1 ),
  RunE: run ( func(ctx context.Context, env *ops.Env, args []string) error {
    mode := ops.CAT_DATA
    switch thumbnail {
    case "":
    case "package":
      mode= ops.CAT_THUMBNAIL
    case "title":
      mode= ops.CAT_TITLE_THUMBNAIL
    default:
      return fmt.Errorf ( "unknown thumbnail kind '%s'", thumbnail )
    }
    return ops.Cat ( ctx, env, args, mode )
  }),
}

var extractCmd = &cobra.Command{
  Use: "extract DEV=/PATH...",
  Short: "Copy packages and their data files to a local directory",
  Args: cobra.MinimumNArgs ( 1 ),
  RunE: run ( func(ctx context.Context, env *ops.Env, args []string) error {
    return ops.Extract ( ctx, env, args, dest_dir )
  }),
}

var injectCmd = &cobra.Command{
  Use: "inject DEV= FILE...",
  Short: "Copy local packages to the place their header names",
  Args: cobra.MinimumNArgs ( 2 ),
  RunE: run ( func(ctx context.Context, env *ops.Env, args []string) error {
    return ops.Inject ( ctx, env, args[0], args[1:] )
  }),
}

var mkdirCmd = &cobra.Command{
  Use: "mkdir DEV=/PATH...",
  Short: "Create directories",
  Args: cobra.MinimumNArgs ( 1 ),
  RunE: run ( ops.Mkdir ),
}

var rmCmd = &cobra.Command{
  Use: "rm DEV=/PATH...",
  Short: "Remove packages, files or directories",
  Args: cobra.MinimumNArgs ( 1 ),
  RunE: run ( func(ctx context.Context, env *ops.Env, args []string) error {
    return ops.Remove ( ctx, env, args, recursive )
  }),
}

var renameCmd = &cobra.Command{
  Use: "rename DEV=/PATH NEW_NAME",
  Short: "Rename a package or an entry",
  Args: cobra.ExactArgs ( 2 ),
  RunE: run ( func(ctx context.Context, env *ops.Env, args []string) error {
    return ops.Rename ( ctx, env, args[0], args[1] )
  }),
}

var renameDeviceCmd = &cobra.Command{
  Use: "rename-device DEV= NAME",
  Short: "Rename a device for the current session",
  Args: cobra.ExactArgs ( 2 ),
  RunE: run ( func(ctx context.Context, env *ops.Env, args []string) error {
    return ops.RenameDevice ( ctx, env, args[0], args[1] )
  }),
}

// Format de les dates de setattr, en hora local.
const TIME_LAYOUT = "2006-01-02 15:04:05"

var setattrCmd = &cobra.Command{
  Use: "setattr DEV=/PATH[::/INNER]",
  Short: "Change the attributes and dates of an entry",
  Long: "Change the attributes and dates of a volume entry, or the name "+
    "and attributes of a file inside an SVOD package.",
  Args: cobra.ExactArgs ( 1 ),
  RunE: func(cmd *cobra.Command, args []string) error {
    e := edit
    if !cmd.Flags ().Changed ( "attributes" ) {
      e.Attributes= nil
    } else if e.Attributes == nil {
      e.Attributes= []string{}
    }
    dst := []*time.Time{&e.Created,&e.Modified,&e.Accessed}
    for i,str := range dates {
      if str == "" { continue }
      t,err := time.ParseInLocation ( TIME_LAYOUT, str, time.Local )
      if err != nil { return fmt.Errorf ( "wrong date '%s': %w", str, err ) }
      *dst[i]= t
    }
    return run ( func(ctx context.Context, env *ops.Env, args []string) error {
      return ops.SetEntry ( ctx, env, args[0], e )
    })( cmd, args )
  },
}

var mkimageCmd = &cobra.Command{
  Use: "mkimage FILE SIZE",
  Short: "Create an image with an empty FATX volume",
  Args: cobra.ExactArgs ( 2 ),
  RunE: run ( func(_ context.Context, env *ops.Env, args []string) error {
    size,err := strconv.ParseInt ( args[1], 0, 64 )
    if err != nil { return fmt.Errorf ( "wrong size '%s': %w", args[1], err ) }
    vid,err := strconv.ParseUint ( mk_vid, 0, 32 )
    if err != nil { return fmt.Errorf ( "wrong volume id '%s': %w", mk_vid, err ) }
    opts := mk_opts
    opts.Size= size
    opts.SectorsPerCluster= mk_spc
    opts.VolumeID= uint32(vid)
    return ops.MkImage ( env, args[0], opts )
  }),
}

var configCmd = &cobra.Command{
  Use: "config",
  Short: "Print the effective configuration",
  Args: cobra.NoArgs,
  RunE: func(cmd *cobra.Command, _ []string) error {
    env,err := newEnv ( cmd )
    if err != nil { return err }
    return config.Write ( os.Stdout, env.Cfg )
  },
}

var configInitCmd = &cobra.Command{
  Use: "init",
  Short: "Write the default configuration file",
  Args: cobra.NoArgs,
  RunE: func(_ *cobra.Command, _ []string) error {
    if _,err := os.Stat ( cfg_path ); err == nil {
      return fmt.Errorf ( "'%s' already exists", cfg_path )
    }
    if err := config.WriteToFile ( cfg_path, config.Default () ); err != nil {
      return err
    }
    fmt.Printf ( "Configuration written to %s\n", cfg_path )
    return nil
  },
}

var versionCmd = &cobra.Command{
  Use: "version",
  Short: "Print version information",
  Args: cobra.NoArgs,
  Run: func(_ *cobra.Command, _ []string) {
    utils.PrintVersion ( os.Stdout )
  },
}


func init() {

  // Globals
  pf := rootCmd.PersistentFlags ()
  pf.StringVar ( &cfg_path, "config", config.DefaultPath (),
    "configuration file" )
  pf.StringVar ( &log_level, "log-level", "info",
    "log level (debug, info, warn, error)" )
  pf.StringArrayVarP ( &images, "image", "i", nil,
    "image file to open, can be repeated" )
  pf.BoolVar ( &scan, "scan", false, "scan block devices" )
  pf.BoolVar ( &verify, "verify", false, "verify package hashes" )

  // Específiques
  catCmd.Flags ().StringVar ( &thumbnail, "thumbnail", "",
    "print the PNG thumbnail instead (package or title)" )
  extractCmd.Flags ().StringVarP ( &dest_dir, "output", "o", ".",
    "destination directory" )
  rmCmd.Flags ().BoolVarP ( &recursive, "recursive", "r", false,
    "remove directories and their contents" )
  mkimageCmd.Flags ().Int64Var ( &mk_opts.Offset, "offset", 0,
    "volume offset inside the image" )
  mkimageCmd.Flags ().Uint32Var ( &mk_spc, "spc", 32,
    "sectors per cluster" )
  mkimageCmd.Flags ().StringVar ( &mk_vid, "volume-id", "0",
    "volume id" )

  sf := setattrCmd.Flags ()
  sf.StringVar ( &edit.Name, "name", "",
    "new name of a file inside an SVOD package" )
  sf.StringSliceVar ( &edit.Attributes, "attributes", nil,
    "attributes, comma separated (readonly, hidden, system, archive, ...)" )
  sf.StringVar ( &dates[0], "created", "", "creation date ("+TIME_LAYOUT+")" )
  sf.StringVar ( &dates[1], "modified", "", "modification date" )
  sf.StringVar ( &dates[2], "accessed", "", "access date" )

  configCmd.AddCommand ( configInitCmd )
  rootCmd.AddCommand ( devicesCmd, showCmd, lsCmd, catCmd, extractCmd,
    injectCmd, mkdirCmd, rmCmd, renameCmd, renameDeviceCmd, setattrCmd,
    mkimageCmd, configCmd, versionCmd )

} // end init


func main() {

  // Inicialitza log
  log.SetPrefix ( "[xcontent] " )
  log.SetFlags ( 0 )

  // Executa operació
  if err := rootCmd.Execute (); err != nil {
    log.Fatal ( err )
  }

}
