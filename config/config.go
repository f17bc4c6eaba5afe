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
 *  config.go - Configuració en TOML.
 *
 */

package config

import (
  "errors"
  "fmt"
  "io"
  "io/fs"
  "os"
  "path/filepath"

  "github.com/BurntSushi/toml"

  "github.com/adriagipas/xcontent/device"
  "github.com/adriagipas/xcontent/utils"
)


/**********/
/* CONFIG */
/**********/

type Config struct {
  LogLevel  string          `toml:"log_level"`
  Detection DetectionConfig `toml:"detection"`
  Catalog   CatalogConfig   `toml:"catalog"`
  Transfer  TransferConfig  `toml:"transfer"`
}


type DetectionConfig struct {
  Images           []string `toml:"images"`
  ScanBlockDevices bool     `toml:"scan_block_devices"`
  BlockDeviceGlob  string   `toml:"block_device_glob,omitempty"`
}


type CatalogConfig struct {
  ContentDir   string `toml:"content_dir"`
  VerifyHashes bool   `toml:"verify_hashes"`
}


type TransferConfig struct {
  InjectDir  string `toml:"inject_dir"`  // Destí dels fitxers que no són paquets
  BufferSize int    `toml:"buffer_size"` // Bytes
}


func Default() *Config {
  return &Config{
    LogLevel: "info",
    Detection: DetectionConfig{
      Images: []string{},
      BlockDeviceGlob: "/dev/sd?",
    },
    Catalog: CatalogConfig{
      ContentDir: "/Content",
    },
    Transfer: TransferConfig{
      InjectDir: "/Content/0000000000000000/FFFE07D1/00010000",
      BufferSize: 0x10000,
    },
  }
} // end Default


// Comprova els valors.
func (self *Config) Validate() error {

  if _,err:= utils.ParseLevel ( self.LogLevel ); err != nil { return err }
  if self.Transfer.BufferSize <= 0 {
    return fmt.Errorf ( "invalid transfer.buffer_size: %d",
      self.Transfer.BufferSize )
  }
  if self.Catalog.ContentDir == "" {
    return errors.New ( "catalog.content_dir is empty" )
  }
  if self.Detection.ScanBlockDevices {
    if _,err:= filepath.Match ( self.Detection.BlockDeviceGlob, "" ); err != nil {
      return fmt.Errorf ( "invalid detection.block_device_glob: %w", err )
    }
  }

  return nil

} // end Validate


func (self *Config) Sources() device.Sources {
  return device.Sources{
    Images: self.Detection.Images,
    ScanBlockDevices: self.Detection.ScanBlockDevices,
    BlockDeviceGlob: self.Detection.BlockDeviceGlob,
  }
} // end Sources


/********/
/* READ */
/********/

// Els camps absents queden amb el valor per defecte.
func Read( r io.Reader ) (*Config,error) {

  cfg:= Default ()
  if _,err:= toml.NewDecoder ( r ).Decode ( cfg ); err != nil {
    return nil,fmt.Errorf ( "failed to decode config: %w", err )
  }
  if err:= cfg.Validate (); err != nil { return nil,err }

  return cfg,nil

} // end Read


func Write( w io.Writer, cfg *Config ) error {
  if err:= toml.NewEncoder ( w ).Encode ( cfg ); err != nil {
    return fmt.Errorf ( "failed to encode config: %w", err )
  }
  return nil
} // end Write


// Si el fitxer no existeix torna la configuració per defecte.
func ReadFromFile( path string ) (*Config,error) {

  f,err:= os.Open ( path )
  if errors.Is ( err, fs.ErrNotExist ) { return Default (),nil }
  if err != nil {
    return nil,fmt.Errorf ( "failed to open config file: %w", err )
  }
  defer f.Close ()
  cfg,err:= Read ( f )
  if err != nil {
    return nil,fmt.Errorf ( "reading config from %s: %w", path, err )
  }

  return cfg,nil

} // end ReadFromFile


func WriteToFile( path string, cfg *Config ) error {

  if err:= os.MkdirAll ( filepath.Dir ( path ), 0o755 ); err != nil {
    return fmt.Errorf ( "failed to create config directory: %w", err )
  }
  f,err:= os.Create ( path )
  if err != nil {
    return fmt.Errorf ( "failed to create config file: %w", err )
  }
  if err:= Write ( f, cfg ); err != nil {
    f.Close ()
    return fmt.Errorf ( "writing config to %s: %w", path, err )
  }

  return f.Close ()

} // end WriteToFile


// Camí per defecte: $XDG_CONFIG_HOME/xcontent/config.toml
func DefaultPath() string {
  dir,err:= os.UserConfigDir ()
  if err != nil { return "xcontent.toml" }
  return filepath.Join ( dir, "xcontent", "config.toml" )
} // end DefaultPath
