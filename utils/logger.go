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
 *  logger.go - Registre estructurat per a les biblioteques.
 *
 */

package utils

import (
  "fmt"
  "io"
  "log/slog"
  "strings"
)


// Els arguments segueixen les convencions de slog: parelles
// clau/valor alternades.
type Logger interface {
  Debug(msg string, args ...any)
  Info(msg string, args ...any)
  Warn(msg string, args ...any)
  Error(msg string, args ...any)
}


type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}


func ParseLevel(level string) (slog.Level,error) {

  switch strings.ToLower ( strings.TrimSpace ( level ) ) {
  case "debug":
    return slog.LevelDebug,nil
  case "", "info":
    return slog.LevelInfo,nil
  case "warn", "warning":
    return slog.LevelWarn,nil
  case "error":
    return slog.LevelError,nil
  default:
    return slog.LevelInfo,fmt.Errorf ( "unknown log level '%s'", level )
  }

} // end ParseLevel


// Crea un Logger de text sobre w. *slog.Logger ja satisfà Logger.
func NewLogger( w io.Writer, level string ) (*slog.Logger,error) {

  lvl,err := ParseLevel ( level )
  if err != nil { return nil,err }
  handler := slog.NewTextHandler ( w, &slog.HandlerOptions{Level: lvl} )

  return slog.New ( handler ),nil

} // end NewLogger


// Torna l si no és nil, en cas contrari un NopLogger.
func OrNop( l Logger ) Logger {
  if l == nil { return NewNopLogger () }
  return l
} // end OrNop
