// import_lots carga en PostgreSQL el catálogo y los partes de producción que exporta el obrador.
//
// Uso: go run ./cmd/import_lots [-products productos.csv] [-lots partes.csv] [-encoding windows-1252]
//
// Cada fila del parte se registra como una entrada de producción (igual que POST /api/inventory/{id}/lots).
// Las filas con error se informan y no detienen la carga.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/obrador-api/internal/application/inventory"
	"github.com/jhoicas/obrador-api/internal/infrastructure/csvimport"
	"github.com/jhoicas/obrador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/obrador-api/pkg/config"
	"github.com/jhoicas/obrador-api/pkg/logger"
)

func main() {
	productsPath := flag.String("products", "", "CSV de catálogo: id;sku;nombre;unidad")
	lotsPath := flag.String("lots", "", "CSV de producción: producto;fecha;cantidad;caducidad;motivo")
	encoding := flag.String("encoding", csvimport.EncodingWindows1252, "codificación de los CSV (utf-8 | windows-1252)")
	userID := flag.String("user", "import_lots", "usuario que figura en los movimientos")
	flag.Parse()

	if *productsPath == "" && *lotsPath == "" {
		fmt.Fprintln(os.Stderr, "indicar -products y/o -lots")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema")
	}

	productRepo := postgres.NewProductRepository(pool)

	if *productsPath != "" {
		f, err := os.Open(*productsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("abrir CSV de catálogo")
		}
		products, err := csvimport.ReadProducts(f, *encoding)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Msg("leer CSV de catálogo")
		}
		for i := range products {
			if err := productRepo.Upsert(ctx, &products[i]); err != nil {
				log.Fatal().Err(err).Str("product_id", products[i].ID).Msg("guardar producto")
			}
		}
		log.Info().Int("productos", len(products)).Msg("catálogo importado")
	}

	if *lotsPath == "" {
		return
	}
	f, err := os.Open(*lotsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV de producción")
	}
	defer f.Close()
	rows, err := csvimport.ReadLots(f, *encoding)
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV de producción")
	}

	ledgerUC := inventory.NewLedgerUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewInventoryLedgerRepository(pool),
		productRepo,
		log,
		cfg.Workflow.ConflictRetries,
	)
	var ok, failed int
	for _, row := range rows {
		if _, err := ledgerUC.RecordProductionFromRequest(ctx, *userID, row.ProductID, row.Request); err != nil {
			failed++
			log.Error().Err(err).Int("linea", row.Line).Str("product_id", row.ProductID).Msg("fila rechazada")
			continue
		}
		ok++
	}
	fmt.Printf("Importadas %d filas de producción (%d rechazadas)\n", ok, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
