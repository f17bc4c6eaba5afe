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

//go:build unix

package device

import (
  "os"

  "golang.org/x/sys/unix"
)


// Bloqueig exclusiu entre processos.
func lockFile( f *os.File ) error {
  return unix.Flock ( int(f.Fd ()), unix.LOCK_EX|unix.LOCK_NB )
}


func unlockFile( f *os.File ) error {
  return unix.Flock ( int(f.Fd ()), unix.LOCK_UN )
}
