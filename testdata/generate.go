package main

import (
	"log"
	"os"

	"github.com/parquet-go/parquet-go"
)

type Student struct {
	ID     int64   `parquet:"id"`
	Name   string  `parquet:"name"`
	Year   int32   `parquet:"year"`
	Active bool    `parquet:"active"`
	Score  float64 `parquet:"score"`
}

func main() {
	students := []Student{
		{ID: 1, Name: "alice", Year: 3, Active: true, Score: 95.5},
		{ID: 2, Name: "bob", Year: 1, Active: false, Score: 82.3},
		{ID: 3, Name: "charlie", Year: 4, Active: true, Score: 88.7},
		{ID: 4, Name: "diana", Year: 2, Active: true, Score: 91.2},
		{ID: 5, Name: "eve", Year: 4, Active: false, Score: 76.8},
	}

	file, err := os.Create("students.parquet")
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Student](file)
	defer writer.Close()

	if _, err := writer.Write(students); err != nil {
		log.Fatal(err)
	}

	grades := []byte("sid,course,grade\n1,math,A\n1,physics,B\n2,math,C\n3,math,A\n4,physics,A\n5,math,B\n")
	if err := os.WriteFile("grades.csv", grades, 0o644); err != nil {
		log.Fatal(err)
	}

	log.Println("Generated students.parquet and grades.csv")
}
