// magicgen is the offline tool around the magic attack tables: it
// generates and validates the binary table file, maintains the
// magic-number database, and renders attack diagrams.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/fgantt/yse/internal/magic"
	"github.com/fgantt/yse/internal/shogi"
	"github.com/fgantt/yse/internal/storage"
	"github.com/fgantt/yse/internal/viz"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: magicgen <command> [flags]

commands:
  generate   find magics, build and validate the table, write the table file
  verify     load a table file and run the full integrity validation
  stats      print memory and lookup statistics for a table file
  export     dump the magic-number database as JSON to stdout
  svg        render a square's attack set as an SVG diagram
`)
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("magicgen: ")

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "verify":
		runVerify(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "svg":
		runSVG(os.Args[2:])
	default:
		usage()
	}
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	out := fs.String("out", "", "table file path (default: platform data dir)")
	dbDir := fs.String("db", "", "magic-number database dir; reuses stored magics and records new ones")
	seed := fs.Uint64("seed", 0, "fixed finder seed for reproducible builds (0 = random)")
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to file")
	fs.Parse(args)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	path := *out
	if path == "" {
		var err error
		path, err = storage.GetTablePath()
		if err != nil {
			log.Fatal(err)
		}
	}

	finder := magic.DefaultFinder()
	if *seed != 0 {
		finder = magic.SeededFinder(*seed)
	}

	var (
		table *magic.Table
		err   error
	)
	if *dbDir != "" {
		store, serr := storage.Open(*dbDir)
		if serr != nil {
			log.Fatal(serr)
		}
		defer store.Close()
		log.Printf("building table via magic database at %s", *dbDir)
		table, err = store.BuildTable(finder)
	} else {
		log.Print("searching magics for all squares, this can take a while")
		table, err = magic.NewWithFinder(finder)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := table.ValidateIntegrity(); err != nil {
		log.Fatal("generated table failed validation: ", err)
	}
	if err := table.SaveFile(path); err != nil {
		log.Fatal(err)
	}

	stats := table.MemoryStats()
	log.Printf("wrote %s: %d rook + %d bishop entries, %d attack sets, %.1f MiB",
		path, stats.RookEntries, stats.BishopEntries, stats.AttackCount,
		float64(stats.Bytes)/(1<<20))
}

func runVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal("usage: magicgen verify <table-file>")
	}

	table, err := magic.LoadFile(fs.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if err := table.ValidateIntegrity(); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: table is valid", fs.Arg(0))
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		log.Fatal("usage: magicgen stats <table-file>")
	}

	table, err := magic.LoadFile(fs.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	stats := table.MemoryStats()
	fmt.Printf("rook entries:    %d\n", stats.RookEntries)
	fmt.Printf("bishop entries:  %d\n", stats.BishopEntries)
	fmt.Printf("attack sets:     %d\n", stats.AttackCount)
	fmt.Printf("footprint:       %.1f MiB\n", float64(stats.Bytes)/(1<<20))
	fmt.Printf("slot occupancy:  %.1f%%\n", stats.Occupancy*100)
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbDir := fs.String("db", "", "magic-number database dir (default: platform data dir)")
	fs.Parse(args)

	var (
		store *storage.Store
		err   error
	)
	if *dbDir != "" {
		store, err = storage.Open(*dbDir)
	} else {
		store, err = storage.OpenDefault()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if err := store.ExportJSON(os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func runSVG(args []string) {
	fs := flag.NewFlagSet("svg", flag.ExitOnError)
	sqFlag := fs.String("square", "5e", "piece square")
	ptFlag := fs.String("piece", "rook", "rook or bishop")
	occFlag := fs.String("occ", "", "comma-separated blocker squares")
	out := fs.String("out", "attacks.svg", "output file")
	fs.Parse(args)

	sq, err := shogi.ParseSquare(*sqFlag)
	if err != nil {
		log.Fatal(err)
	}

	var pt shogi.PieceType
	switch strings.ToLower(*ptFlag) {
	case "rook":
		pt = shogi.Rook
	case "bishop":
		pt = shogi.Bishop
	default:
		log.Fatalf("unknown piece %q", *ptFlag)
	}

	occ := shogi.EmptyBB
	if *occFlag != "" {
		for _, name := range strings.Split(*occFlag, ",") {
			s, err := shogi.ParseSquare(strings.TrimSpace(name))
			if err != nil {
				log.Fatal(err)
			}
			occ = occ.Set(s)
		}
	}

	table := magic.NewEmpty() // ray-cast fallback is exact, no search needed
	attacks, err := table.Attacks(sq, pt, occ)
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	viz.WriteBoard(f, viz.BoardDiagram{
		Bits:   attacks,
		Origin: sq,
		Title:  fmt.Sprintf("%s %s, occupancy {%s}", strings.ToLower(pt.String()), sq, *occFlag),
	})
	log.Printf("wrote %s", *out)
}
