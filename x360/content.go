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
 *  content.go - Tipus de contingut dels paquets.
 *
 */

package x360

import (
  "fmt"
  "path"
  "strings"
)


/****************/
/* CONTENT TYPE */
/****************/

// Valor cru tal com apareix en la capçalera i en el camí
// /Content/<perfil>/<títol>/<tipus>.
type ContentType uint32

const (
  CONTENT_TYPE_SAVED_GAME          ContentType = 0x0000001
  CONTENT_TYPE_MARKETPLACE_CONTENT ContentType = 0x0000002
  CONTENT_TYPE_PUBLISHER           ContentType = 0x0000003
  CONTENT_TYPE_XBOX360_TITLE       ContentType = 0x0001000
  CONTENT_TYPE_IPTV_PAUSE_BUFFER   ContentType = 0x0002000
  CONTENT_TYPE_INSTALLED_GAME      ContentType = 0x0004000
  CONTENT_TYPE_XBOX_TITLE          ContentType = 0x0005000
  CONTENT_TYPE_GAME_ON_DEMAND      ContentType = 0x0007000
  CONTENT_TYPE_AVATAR_ITEM         ContentType = 0x0009000
  CONTENT_TYPE_PROFILE             ContentType = 0x0010000
  CONTENT_TYPE_GAMER_PICTURE       ContentType = 0x0020000
  CONTENT_TYPE_THEME               ContentType = 0x0030000
  CONTENT_TYPE_CACHE_FILE          ContentType = 0x0040000
  CONTENT_TYPE_STORAGE_DOWNLOAD    ContentType = 0x0050000
  CONTENT_TYPE_XBOX_SAVED_GAME     ContentType = 0x0060000
  CONTENT_TYPE_XBOX_DOWNLOAD       ContentType = 0x0070000
  CONTENT_TYPE_GAME_DEMO           ContentType = 0x0080000
  CONTENT_TYPE_VIDEO               ContentType = 0x0090000
  CONTENT_TYPE_GAME_TITLE          ContentType = 0x00A0000
  CONTENT_TYPE_INSTALLER           ContentType = 0x00B0000
  CONTENT_TYPE_GAME_TRAILER        ContentType = 0x00C0000
  CONTENT_TYPE_ARCADE_TITLE        ContentType = 0x00D0000
  CONTENT_TYPE_XNA                 ContentType = 0x00E0000
  CONTENT_TYPE_LICENSE_STORE       ContentType = 0x00F0000
  CONTENT_TYPE_MOVIE               ContentType = 0x0100000
  CONTENT_TYPE_TV                  ContentType = 0x0200000
  CONTENT_TYPE_MUSIC_VIDEO         ContentType = 0x0300000
  CONTENT_TYPE_GAME_VIDEO          ContentType = 0x0400000
  CONTENT_TYPE_PODCAST_VIDEO       ContentType = 0x0500000
  CONTENT_TYPE_VIRAL_VIDEO         ContentType = 0x0600000
  CONTENT_TYPE_COMMUNITY_GAME      ContentType = 0x2000000
)


func ContentTypeString( ctype ContentType ) string {
  switch ctype {
  case CONTENT_TYPE_SAVED_GAME:
    return "Saved Game"
  case CONTENT_TYPE_MARKETPLACE_CONTENT:
    return "Marketplace Content"
  case CONTENT_TYPE_PUBLISHER:
    return "Publisher"
  case CONTENT_TYPE_XBOX360_TITLE:
    return "Xbox 360 Title"
  case CONTENT_TYPE_IPTV_PAUSE_BUFFER:
    return "IPTV Pause Buffer"
  case CONTENT_TYPE_INSTALLED_GAME:
    return "Installed Game"
  case CONTENT_TYPE_XBOX_TITLE:
    return "Xbox Title"
  case CONTENT_TYPE_GAME_ON_DEMAND:
    return "Game on Demand"
  case CONTENT_TYPE_AVATAR_ITEM:
    return "Avatar Item"
  case CONTENT_TYPE_PROFILE:
    return "Profile"
  case CONTENT_TYPE_GAMER_PICTURE:
    return "Gamer Picture"
  case CONTENT_TYPE_THEME:
    return "Theme"
  case CONTENT_TYPE_CACHE_FILE:
    return "Cache File"
  case CONTENT_TYPE_STORAGE_DOWNLOAD:
    return "Storage Download"
  case CONTENT_TYPE_XBOX_SAVED_GAME:
    return "Xbox Saved Game"
  case CONTENT_TYPE_XBOX_DOWNLOAD:
    return "Xbox Download"
  case CONTENT_TYPE_GAME_DEMO:
    return "Game Demo"
  case CONTENT_TYPE_VIDEO:
    return "Video"
  case CONTENT_TYPE_GAME_TITLE:
    return "Game Title"
  case CONTENT_TYPE_INSTALLER:
    return "Installer"
  case CONTENT_TYPE_GAME_TRAILER:
    return "Game Trailer"
  case CONTENT_TYPE_ARCADE_TITLE:
    return "Arcade Title"
  case CONTENT_TYPE_XNA:
    return "XNA"
  case CONTENT_TYPE_LICENSE_STORE:
    return "License Store"
  case CONTENT_TYPE_MOVIE:
    return "Movie"
  case CONTENT_TYPE_TV:
    return "TV"
  case CONTENT_TYPE_MUSIC_VIDEO:
    return "Music Video"
  case CONTENT_TYPE_GAME_VIDEO:
    return "Game Video"
  case CONTENT_TYPE_PODCAST_VIDEO:
    return "Podcast Video"
  case CONTENT_TYPE_VIRAL_VIDEO:
    return "Viral Video"
  case CONTENT_TYPE_COMMUNITY_GAME:
    return "Community Game"
  default:
    return fmt.Sprintf ( "Unknown (%08X)", uint32(ctype) )
  }
} // end ContentTypeString


func (self ContentType) String() string { return ContentTypeString ( self ) }


/*************/
/* FILE TYPE */
/*************/

var _FILE_TYPES = map[string]string{
  "png": "Image",
  "jpg": "Image",
  "jpeg": "Image",
  "bmp": "Image",
  "dds": "Image",
  "xex": "Xenon Executable",
  "xbe": "Xbox Executable",
  "dll": "Dynamic Link Library",
  "xdbf": "Xbox Database File",
  "gpd": "Gamer Profile Data",
  "spa": "Statistics, Presence and Achievements",
  "xml": "XML Document",
  "txt": "Text Document",
  "ini": "Configuration",
  "xzp": "Xbox Zip Package",
  "wmv": "Windows Media Video",
  "xma": "Xbox Media Audio",
  "wav": "Audio",
  "bik": "Bink Video",
  "bin": "Binary",
  "dat": "Data",
}


// Descripció del fitxer a partir de l'extensió: "Image (png)".
func FileTypeString( name string ) string {

  ext := strings.ToLower ( strings.TrimPrefix ( path.Ext ( name ), "." ) )
  if ext == "" { return "File" }
  desc,ok := _FILE_TYPES[ext]
  if !ok { desc= "File" }

  return desc + " (" + ext + ")"

} // end FileTypeString
