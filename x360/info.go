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
 *  info.go - Impressió de la capçalera.
 *
 */

package x360

import (
  "fmt"
  "io"

  "github.com/adriagipas/xcontent/utils"
)


/**************/
/* PRINT INFO */
/**************/

func (self *Header) PrintInfo( file io.Writer, prefix string ) error {

  // Preparació
  P:= func(args... any) {
    fmt.Fprint ( file, prefix )
    fmt.Fprintln ( file, args... )
  }
  F:= func(format string,args... any) {
    fmt.Fprint ( file, prefix )
    fmt.Fprintf ( file, format, args... )
  }
  PrintBytes:= func(title string, data []byte) {
    F("%s ",title)
    for i,v:= range data {
      if i%16 == 0 && i > 0 {
        fmt.Fprint ( file, "\n" )
        fmt.Fprint ( file, prefix )
        for j:= 0; j < len(title)+1; j++ {
          fmt.Fprint ( file, " " )
        }
      }
      fmt.Fprintf ( file, "%02x ", uint8(v) )
    }
    fmt.Fprint ( file, "\n" )
  }

  if self.DescriptorType == FS_SVOD {
    P("Secure Virtual Optical Disc (SVOD)")
  } else {
    P("Secure Transacted File System (STFS)")
  }
  P("")
  F("Type:                                  %s\n",self.Type())
  if self.Magic == STFS_TYPE_CONS {
    PrintBytes("Certificate Owner Console ID:         ",
      self.Certificate.CertOwnConsoleID[:])
    F("Certificate Owner Console Part Number: %s\n",
      self.Certificate.CertOwnConsolePartNumber)
    F("Certificate Owner Console Type:        %s\n",
      self.CertOwnConsoleType())
    F("Certificate Date of Generation:        %s\n",
      self.Certificate.CertDateGeneration)
  }
  P("")
  F("Content Type:                          %s\n",self.ContentType)
  F("Metadata Version:                      %d\n",self.MetadataVersion)
  if self.ContentSize > 0 {
    F("Content Size:                          %s\n",
      utils.NumBytesToStr(uint64(self.ContentSize)))
  }
  F("Media ID:                              %08x\n",self.MediaID)
  F("Version:                               %d\n",self.Version)
  F("Base Version:                          %d\n",self.BaseVersion)
  F("Title ID:                              %s\n",self.TitleIDString())
  F("Platform:                              %s\n",self.PlatformString())
  F("Disc Number:                           %d\n",self.DiscNumber)
  F("Disc in Set:                           %d\n",self.DiscInSet)
  F("Profile ID:                            %s\n",self.ProfileIDString())
  PrintBytes("Console ID:                           ",self.ConsoleID[:])
  if self.DataFileCount > 0 {
    F("Data File Count:                       %d\n",self.DataFileCount)
    F("Data File Combined Size:               %s\n",
      utils.NumBytesToStr(uint64(self.DataFileCombSize)))
  }
  switch self.DescriptorType {
  case FS_STFS:
    F("Allocated Blocks:                      %d\n",
      self.Stfs.TotalAllocatedBlockCount)
    F("File Table:                            %d blocks at %d\n",
      self.Stfs.FileTableBlockCount,self.Stfs.FileTableBlockNumber)
  case FS_SVOD:
    F("Data Blocks:                           %d (offset %d)\n",
      self.Svod.DataBlockCount,self.Svod.DataBlockOffset)
  }
  if self.PublisherName != "" {
    F("Publisher Name:                        %s\n",self.PublisherName)
  }
  if self.TitleName != "" {
    F("Title Name:                            %s\n",self.TitleName)
  }
  if tmp,ok:= self.Thumbnail (); ok {
    F("Thumbnail:                             %s\n",
      utils.NumBytesToStr(uint64(len(tmp))))
  }
  if tmp,ok:= self.TitleThumbnail (); ok {
    F("Title Thumbnail:                       %s\n",
      utils.NumBytesToStr(uint64(len(tmp))))
  }
  P("Display Name / Description:")
  for i:= 0; i < 12; i++ {
    if self.DisplayName[i] != "" || self.DisplayDescription[i] != "" {
      P("")
      if self.DisplayName[i] != "" {
        F(" - %s\n",self.DisplayName[i])
      }
      if self.DisplayDescription[i] != "" {
        F(" - %s\n",self.DisplayDescription[i])
      }
    }
  }
  P("")

  return nil

} // end PrintInfo
