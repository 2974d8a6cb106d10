package compiler_test

import (
	"testing"

	"kotlinls/internal/compiler"

	"github.com/stretchr/testify/assert"
)

func TestDeclarations(t *testing.T) {
	content := `package com.example

interface Repo {
    fun load(): String
}

class Service(private val repo: Repo) {
    val name = "svc"

    fun run() {
        fun local() {}
    }

    companion object {
        const val TAG = "svc"
    }
}

object Registry

fun main() {}
`
	file := compile(t, "Service.kt", content)

	type entry struct{ fq, kind string }
	var got []entry
	for _, d := range compiler.Declarations(file) {
		got = append(got, entry{d.FqName, d.Kind})
	}

	assert.Equal(t, []entry{
		{"com.example.Repo", compiler.KindInterface},
		{"com.example.Repo.load", compiler.KindFunction},
		{"com.example.Service", compiler.KindClass},
		{"com.example.Service.name", compiler.KindProperty},
		{"com.example.Service.run", compiler.KindFunction},
		{"com.example.Service.Companion", compiler.KindObject},
		{"com.example.Service.Companion.TAG", compiler.KindProperty},
		{"com.example.Registry", compiler.KindObject},
		{"com.example.main", compiler.KindFunction},
	}, got)
}
