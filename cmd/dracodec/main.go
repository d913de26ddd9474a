// Command dracodec decodes a Draco bitstream and writes the decoded
// geometry as a simple binary dump, printing a summary and an
// optional content digest.
//
// Usage:
//
//	dracodec --input model.drc --output model.bin [--digest]
//
// Exit code 0 on success, 1 on decode error.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/arloliu/draco"
	"github.com/arloliu/draco/format"
	"github.com/arloliu/draco/geometry"
)

func main() {
	input := flag.String("input", "", "input .drc file (may be zstd/lz4/s2 wrapped)")
	output := flag.String("output", "", "output file for the decoded dump (optional)")
	digest := flag.Bool("digest", false, "print the xxhash64 content digest of the decoded geometry")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "dracodec: --input is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*input, *output, *digest); err != nil {
		fmt.Fprintf(os.Stderr, "dracodec: %v\n", err)
		os.Exit(1)
	}
}

func run(input, output string, digest bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	geomType, err := draco.GetEncodedGeometryType(data)
	if err != nil {
		return err
	}

	var pc *geometry.PointCloud
	switch geomType {
	case format.GeometryMesh:
		mesh, err := draco.DecodeMesh(data)
		if err != nil {
			return err
		}
		fmt.Printf("mesh: %d points, %d faces, %d attributes\n",
			mesh.NumPoints(), mesh.NumFaces(), mesh.NumAttributes())
		if digest {
			fmt.Printf("digest: %016x\n", mesh.Fingerprint())
		}
		if output != "" {
			return writeMeshDump(output, mesh)
		}
		return nil
	case format.GeometryPointCloud:
		pc, err = draco.DecodePointCloud(data)
		if err != nil {
			return err
		}
	}

	fmt.Printf("point cloud: %d points, %d attributes\n", pc.NumPoints(), pc.NumAttributes())
	if digest {
		fmt.Printf("digest: %016x\n", pc.Fingerprint())
	}
	if output != "" {
		return writePointCloudDump(output, pc)
	}

	return nil
}

// writePointCloudDump writes each attribute's value buffer prefixed by a
// small descriptor. The dump is meant for piping into inspection tools, not
// as an interchange format.
func writePointCloudDump(path string, pc *geometry.PointCloud) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := 0; i < pc.NumAttributes(); i++ {
		att := pc.Attribute(i)
		desc := []byte{byte(att.Type), byte(att.DataType), att.NumComponents}
		if _, err := f.Write(desc); err != nil {
			return err
		}
		var count [4]byte
		binary.LittleEndian.PutUint32(count[:], uint32(att.NumValues()))
		if _, err := f.Write(count[:]); err != nil {
			return err
		}
		if _, err := f.Write(att.Buffer()); err != nil {
			return err
		}
	}

	return nil
}

func writeMeshDump(path string, mesh *geometry.Mesh) error {
	if err := writePointCloudDump(path, &mesh.PointCloud); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], uint32(mesh.NumFaces()))
	if _, err := f.Write(idx[:]); err != nil {
		f.Close()
		return err
	}
	for i := 0; i < mesh.NumFaces(); i++ {
		face := mesh.Face(i)
		for _, v := range face {
			binary.LittleEndian.PutUint32(idx[:], v)
			if _, err := f.Write(idx[:]); err != nil {
				f.Close()
				return err
			}
		}
	}

	return f.Close()
}
