// seed_admins carga la lista de administradores de plataforma (tabla platform_admins)
// desde un archivo de texto con un email por línea. Las líneas vacías y las que empiezan
// con # se ignoran.
//
// Uso: go run ./cmd/seed_admins [-latin1] [-apply] [ruta/admins.txt]
// Por defecto lee admins.txt y escribe internal/infrastructure/postgres/migrations/002_seed_admins.sql.
// Con -apply inserta directamente en la base configurada (DATABASE_URL o DB_*).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/assetverse/assetverse-api/internal/domain/entity"
	"github.com/assetverse/assetverse-api/internal/infrastructure/postgres"
	"github.com/assetverse/assetverse-api/pkg/config"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el archivo está en ISO-8859-1 (exportado de hojas de cálculo)")
	apply := flag.Bool("apply", false, "insertar en la base en lugar de generar SQL")
	flag.Parse()

	path := "admins.txt"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir lista: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var r io.Reader = f
	if *latin1 {
		r = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	emails, invalid, err := parseEmails(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer lista: %v\n", err)
		os.Exit(1)
	}
	for _, line := range invalid {
		fmt.Fprintf(os.Stderr, "Ignorado (email inválido): %q\n", line)
	}

	if *apply {
		if err := applyAdmins(emails); err != nil {
			fmt.Fprintf(os.Stderr, "Aplicar: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registrados %d administradores\n", len(emails))
		return
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "002_seed_admins.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := writeSQL(out, emails); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d administradores\n", outPath, len(emails))
}

// parseEmails normaliza y deduplica conservando el orden de aparición.
func parseEmails(r io.Reader) (emails, invalid []string, err error) {
	seen := make(map[string]bool)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		email := entity.NormalizeEmail(line)
		if !entity.ValidEmail(email) {
			invalid = append(invalid, line)
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails, invalid, sc.Err()
}

func writeSQL(w io.Writer, emails []string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("-- Administradores de plataforma\n")
	bw.WriteString("-- Generado por cmd/seed_admins\n\n")
	if len(emails) == 0 {
		bw.WriteString("-- (lista vacía)\n")
		return bw.Flush()
	}
	bw.WriteString("INSERT INTO platform_admins (email) VALUES\n")
	for i, e := range emails {
		sep := ","
		if i == len(emails)-1 {
			sep = ""
		}
		fmt.Fprintf(bw, "  ('%s')%s\n", escapeSQL(e), sep)
	}
	bw.WriteString("ON CONFLICT (email) DO NOTHING;\n")
	return bw.Flush()
}

func applyAdmins(emails []string) error {
	cfg, err := config.LoadDB()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	admins := postgres.NewAdminRepository(pool)
	for _, e := range emails {
		if err := admins.Grant(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
