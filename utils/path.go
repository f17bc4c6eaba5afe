/*
 * Copyright 2022-2026 Adrià Giménez Pastor.
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
 *  path.go - Processament de camins dins d'un dispositiu.
 *
 *  Sintaxi: <PATH> := <PATH_NONAME> | <DEV>=<PATH_NONAME>
 *           <DEV>  := [0-9]+  (índex del dispositiu)
 *
 */

package utils;

import (
  "errors"
  "fmt"
  "strconv"
  "strings"
)


/********/
/* PATH */
/********/

type Path struct {
  Device int       // Índex del dispositiu, 0 si no s'indica
  Path   string    // Camí normalitzat, sempre comença per '/'
  Paths  []string  // Components del camí, buit vol dir l'arrel
  IsDir  bool      // Si l'últim caràcter és un / s'enten que es vol
                   // accedir a este fitxer com si fora un directori.
}


func check_device(name string) bool {
  if len(name) == 0 { return false }
  for i := 0; i < len(name); i++ {
    if name[i] < '0' || name[i] > '9' {
      return false
    }
  }
  return true
}


// Aquesta funció processa un 'string' representant un path a fitxer i
// torna un objecte PATH.
func ParsePath(path string) (*Path,error) {

  // Trim string
  path= strings.TrimSpace ( path )
  if len(path) == 0 {
    return nil,errors.New ( "Empty path" )
  }
  opath := path

  // Comprovacions de sintaxis. No es permeten dobles separados.
  if strings.Contains ( path, "//" ) {
    return nil,errors.New("wrong syntax for path: "+opath)
  }

  // Obté el dispositiu
  device := 0
  if ind := strings.Index ( path, "=" ); ind != -1 {
    aux := strings.SplitN ( path, "=", 2 )
    if ind == 0 || !check_device ( aux[0] ) {
      return nil,errors.New("wrong syntax for path: "+opath)
    }
    num,err := strconv.Atoi ( aux[0] )
    if err != nil {
      return nil,fmt.Errorf ( "wrong device index in path '%s': %s",
        opath, err )
    }
    device,path= num,strings.TrimSpace ( aux[1] )
    if path == "" { path= "/" }
  }

  // Crea Path
  ret := Path{
    Device: device,
  }
  ret.Paths,ret.IsDir= SplitPath ( path )
  ret.Path= "/" + strings.Join ( ret.Paths, "/" )

  return &ret,nil

} // end ParsePath


// Divideix un camí separat per '/' en components. Torna també si
// acaba en '/'.
func SplitPath(path string) ([]string,bool) {

  is_dir := false
  if path == "" || path == "/" { return []string{},true }
  if path[len(path)-1] == '/' { is_dir= true }
  ret := make ( []string, 0, 8 )
  for _,p := range strings.Split ( path, "/" ) {
    if p != "" && p != "." {
      ret= append ( ret, p )
    }
  }

  return ret,is_dir

} // end SplitPath


// Torna el directori i el nom d'un camí. El directori sempre
// comença per '/'.
func SplitDirName(path string) (string,string) {

  parts,_ := SplitPath ( path )
  if len(parts) == 0 { return "/","" }
  dir := "/" + strings.Join ( parts[:len(parts)-1], "/" )

  return dir,parts[len(parts)-1]

} // end SplitDirName


func JoinPath(elems ...string) string {

  parts := make ( []string, 0, len(elems) )
  for _,e := range elems {
    tmp,_ := SplitPath ( e )
    parts= append ( parts, tmp... )
  }

  return "/" + strings.Join ( parts, "/" )

} // end JoinPath
