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
/*
 *  fattime.go - Dates empaquetades a l'estil FAT (FATX i STFS).
 *
 *  Bits: AAAAAAAM MMMDDDDD hhhhhmmm mmmsssss  (any des de 1980, segons/2)
 *
 */

package utils

import (
  "time"
)


func PackFATTime( t time.Time ) uint32 {

  year := t.Year () - 1980
  if year < 0 {
    return PackFATTime ( time.Date ( 1980, 1, 1, 0, 0, 0, 0, t.Location () ) )
  } else if year > 127 {
    year= 127
  }
  date := uint32(year)<<9 | uint32(t.Month ())<<5 | uint32(t.Day ())
  hour := uint32(t.Hour ())<<11 | uint32(t.Minute ())<<5 |
    uint32(t.Second ()/2)

  return date<<16 | hour

} // end PackFATTime


func UnpackFATTime( v uint32 ) time.Time {

  if v == 0 { return time.Time{} }
  date,hour := v>>16,v&0xFFFF
  month,day := int((date>>5)&0xF),int(date&0x1F)
  if month == 0 { month= 1 }
  if day == 0 { day= 1 }

  return time.Date ( int(date>>9) + 1980, time.Month(month), day,
    int(hour>>11), int((hour>>5)&0x3F), int(hour&0x1F)*2, 0, time.Local )

} // end UnpackFATTime
