package preview

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"

	"github.com/gruppe-adler/demcache/internal/dem"
	"github.com/gruppe-adler/demcache/internal/utils"
	"github.com/gruppe-adler/demcache/internal/validate"
)

var sizes = []uint{128, 256, 512, 1024}

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet) {

	var timer time.Time
	start := time.Now()

	outputPtr := flagSet.String("out", "", "Path to output directory")
	inputPtr := flagSet.String("in", "", "Path to a cached DEM (.raw)")

	flagSet.Parse(os.Args[2:])

	// make sure both flags are present
	if *outputPtr == "" || *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	// make sure given output directory is a valid directory
	if !utils.IsDirectory(*outputPtr) {
		log.Fatal(errors.New("Output directory doesn't exists"))
	}

	if err := validate.ArtifactFile(*inputPtr); err != nil {
		log.Fatal(err)
	}

	timer = time.Now()
	fmt.Println("▶️  Loading DEM")
	grid, err := dem.ReadArtifact(*inputPtr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded DEM in", time.Since(timer).String())

	timer = time.Now()
	fmt.Println("▶️  Shading preview image")
	previewImage := Image(grid)
	fmt.Println("✔️  Shaded preview image in", time.Since(timer).String())

	if err := Write(previewImage, *outputPtr); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

// Write saves img as preview.png plus one scaled copy per preview width.
func Write(img image.Image, outputDirectory string) error {
	timer := time.Now()
	fmt.Println("▶️  Writing original preview image to output")
	if err := saveImage(filepath.Join(outputDirectory, "preview.png"), img); err != nil {
		return err
	}
	fmt.Println("✔️  Wrote original preview image in", time.Since(timer).String())

	previewWidth := img.Bounds().Dx()
	previewHeight := img.Bounds().Dy()

	for _, size := range sizes {
		timer = time.Now()
		fmt.Printf("▶️  Building x%d image\n", size)

		factor := float64(size) / float64(previewWidth)
		h := uint(float64(previewHeight)*factor + 0.5)
		if h == 0 {
			h = 1
		}

		scaled := resize.Resize(size, h, img, resize.MitchellNetravali)
		if err := saveImage(filepath.Join(outputDirectory, fmt.Sprintf("preview_%d.png", size)), scaled); err != nil {
			return err
		}

		fmt.Printf("✔️  Built x%d in %s\n", size, time.Since(timer).String())
	}
	return nil
}

func saveImage(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
